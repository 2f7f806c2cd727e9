package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"consumerai-go/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	// sessionTTL 会话与历史的过期时间。
	sessionTTL = 7 * 24 * time.Hour
	// maxHistoryMessages 历史列表只保留最近的消息条数。
	maxHistoryMessages = 50
)

// SessionRepository 接口定义了会话标识与会话历史的缓存操作。
type SessionRepository interface {
	// GetSessionID 返回用户当前会话 ID；没有会话时返回空字符串。
	GetSessionID(ctx context.Context, userID uint) (string, error)
	// CreateSessionID 为用户生成并保存一个新的会话 ID。
	CreateSessionID(ctx context.Context, userID uint) (string, error)
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	// AppendMessages 追加消息并裁剪到最近 maxHistoryMessages 条。
	AppendMessages(ctx context.Context, sessionID string, messages []model.ChatMessage) error
	ReplaceHistory(ctx context.Context, sessionID string, messages []model.ChatMessage) error
	// ClearSession 删除用户当前会话及其历史。
	ClearSession(ctx context.Context, userID uint) error
}

// sessionRepository 是 SessionRepository 接口的 Redis 实现。
type sessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(rdb *redis.Client) SessionRepository {
	return &sessionRepository{rdb: rdb}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("user:%d:current_session", userID)
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("session:%s:history", sessionID)
}

// GetSessionID 返回用户当前会话 ID。
func (r *sessionRepository) GetSessionID(ctx context.Context, userID uint) (string, error) {
	sessionID, err := r.rdb.Get(ctx, sessionKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session id: %w", err)
	}
	return sessionID, nil
}

// CreateSessionID 生成新的会话 ID 并写入缓存。
// 写入失败时向上返回错误，绝不退回到用户 ID 充当会话。
func (r *sessionRepository) CreateSessionID(ctx context.Context, userID uint) (string, error) {
	sessionID := uuid.NewString()
	err := r.rdb.Set(ctx, sessionKey(userID), sessionID, sessionTTL).Err()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return sessionID, nil
}

// GetHistory 读取会话历史，按插入顺序返回。
func (r *sessionRepository) GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	raws, err := r.rdb.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session history: %w", err)
	}

	messages := make([]model.ChatMessage, 0, len(raws))
	for _, raw := range raws {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			// 跳过坏数据，保证剩余历史可用
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// AppendMessages 追加消息并裁剪历史长度。
func (r *sessionRepository) AppendMessages(ctx context.Context, sessionID string, messages []model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	key := historyKey(sessionID)
	pipe := r.rdb.Pipeline()
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal chat message: %w", err)
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, -maxHistoryMessages, -1)
	pipe.Expire(ctx, key, sessionTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append session history: %w", err)
	}
	return nil
}

// ReplaceHistory 用给定消息整体替换会话历史（从后端回填时用）。
func (r *sessionRepository) ReplaceHistory(ctx context.Context, sessionID string, messages []model.ChatMessage) error {
	key := historyKey(sessionID)
	pipe := r.rdb.Pipeline()
	pipe.Del(ctx, key)
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal chat message: %w", err)
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, -maxHistoryMessages, -1)
	pipe.Expire(ctx, key, sessionTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace session history: %w", err)
	}
	return nil
}

// ClearSession 删除用户当前会话及其历史。
func (r *sessionRepository) ClearSession(ctx context.Context, userID uint) error {
	sessionID, err := r.GetSessionID(ctx, userID)
	if err != nil {
		return err
	}
	if sessionID == "" {
		return nil
	}

	pipe := r.rdb.Pipeline()
	pipe.Del(ctx, sessionKey(userID))
	pipe.Del(ctx, historyKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
