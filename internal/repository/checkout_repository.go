package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// processedTTL 已处理标记的保留时间。
const processedTTL = 30 * 24 * time.Hour

// CheckoutRepository 接口定义了支付会话处理标记的缓存操作。
type CheckoutRepository interface {
	// MarkProcessed 原子地登记一个会话为已处理；首次登记返回 true。
	MarkProcessed(ctx context.Context, sessionID string) (bool, error)
	// ClearProcessed 撤销登记，允许升级副作用在失败后重试。
	ClearProcessed(ctx context.Context, sessionID string) error
}

// checkoutRepository 是 CheckoutRepository 接口的 Redis 实现。
type checkoutRepository struct {
	rdb *redis.Client
}

// NewCheckoutRepository 创建一个新的 CheckoutRepository 实例。
func NewCheckoutRepository(rdb *redis.Client) CheckoutRepository {
	return &checkoutRepository{rdb: rdb}
}

func processedKey(sessionID string) string {
	return fmt.Sprintf("checkout:processed:%s", sessionID)
}

// MarkProcessed 通过 SETNX 保证同一会话只有一次首登记。
func (r *checkoutRepository) MarkProcessed(ctx context.Context, sessionID string) (bool, error) {
	first, err := r.rdb.SetNX(ctx, processedKey(sessionID), "1", processedTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark session processed: %w", err)
	}
	return first, nil
}

// ClearProcessed 删除已处理标记。
func (r *checkoutRepository) ClearProcessed(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, processedKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear processed mark: %w", err)
	}
	return nil
}
