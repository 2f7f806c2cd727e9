package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/config"
	"consumerai-go/internal/repository"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/payments"

	"gorm.io/gorm"
)

// VerifyResult 是一次支付校验的结果。
type VerifyResult struct {
	Paid      bool `json:"paid"`
	Processed bool `json:"processed"`
}

// CheckoutService 接口定义了订阅结账的业务操作。
type CheckoutService interface {
	// CreateSession 为指定套餐创建托管结账会话并返回跳转地址。
	// 套餐校验和用户查询都发生在调用支付服务商之前。
	CreateSession(ctx context.Context, userID uint, plan string) (string, error)
	// Verify 查询会话支付状态。会话必须绑定在当前用户名下；
	// 已支付、属 Pro 套餐且未处理过时升级用户并发放奖励积分。
	Verify(ctx context.Context, userID uint, sessionID string) (*VerifyResult, error)
}

// checkoutService 是 CheckoutService 接口的实现。
type checkoutService struct {
	cfg          config.StripeConfig
	userRepo     repository.UserRepository
	userSvc      UserService
	creditSvc    CreditService
	payments     payments.Client
	checkoutRepo repository.CheckoutRepository
	proBonus     int
}

// NewCheckoutService 创建一个新的 CheckoutService 实例。
func NewCheckoutService(
	cfg config.StripeConfig,
	userRepo repository.UserRepository,
	userSvc UserService,
	creditSvc CreditService,
	paymentsClient payments.Client,
	checkoutRepo repository.CheckoutRepository,
	proBonus int,
) CheckoutService {
	return &checkoutService{
		cfg:          cfg,
		userRepo:     userRepo,
		userSvc:      userSvc,
		creditSvc:    creditSvc,
		payments:     paymentsClient,
		checkoutRepo: checkoutRepo,
		proBonus:     proBonus,
	}
}

// CreateSession 创建结账会话。
// 购买者 ID 与套餐名随会话一起写入服务商侧，校验支付时据此绑定。
func (s *checkoutService) CreateSession(ctx context.Context, userID uint, plan string) (string, error) {
	priceID, ok := s.cfg.PricePlans[plan]
	if !ok || priceID == "" {
		return "", apperr.New(apperr.Validation, "未知的订阅套餐")
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.New(apperr.NotFound, "用户不存在")
		}
		return "", apperr.Wrap(apperr.Internal, "创建结账会话失败", err)
	}

	// 同一用户同一套餐同一分钟内的重试复用服务商侧的会话
	idempotencyKey := fmt.Sprintf("checkout:%d:%s:%d", userID, plan, time.Now().Unix()/60)

	session, err := s.payments.CreateCheckoutSession(ctx, priceID, plan, user.Email,
		clientReference(userID), idempotencyKey)
	if err != nil {
		return "", apperr.Wrap(apperr.Upstream, "创建结账会话失败，请稍后重试", err)
	}
	log.Infof("创建结账会话成功: userID=%d, plan=%s, session=%s", userID, plan, session.ID)
	return session.URL, nil
}

// Verify 查询会话状态并在首次确认支付时执行升级副作用。
// 会话归属校验在消耗已处理标记之前完成，冒用他人会话号的请求
// 不会碰到标记，真正的购买者仍可正常升级。
func (s *checkoutService) Verify(ctx context.Context, userID uint, sessionID string) (*VerifyResult, error) {
	if sessionID == "" {
		return nil, apperr.New(apperr.Validation, "缺少会话标识")
	}

	session, err := s.payments.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "查询支付状态失败，请稍后重试", err)
	}

	result := &VerifyResult{Paid: session.Paid}
	if !session.Paid {
		return result, nil
	}

	if session.ClientReferenceID != clientReference(userID) {
		log.Warnf("会话归属不匹配: userID=%d, session=%s, ref=%s", userID, sessionID, session.ClientReferenceID)
		return nil, apperr.New(apperr.Forbidden, "支付会话不属于当前用户")
	}

	first, err := s.checkoutRepo.MarkProcessed(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询支付状态失败", err)
	}
	if !first {
		// 已处理过，直接返回
		result.Processed = true
		return result, nil
	}

	if planGrantsPro(session.Plan) {
		if err := s.userSvc.MarkPro(userID); err != nil {
			log.Errorf("升级 Pro 失败: userID=%d, session=%s, error: %v", userID, sessionID, err)
			// 释放标记，允许下次重试
			_ = s.checkoutRepo.ClearProcessed(ctx, sessionID)
			return nil, err
		}

		if s.proBonus > 0 {
			if _, err := s.creditSvc.Award(ctx, userID, "pro_upgrade:"+sessionID, s.proBonus); err != nil {
				// 升级已生效，奖励失败只记日志
				log.Errorf("发放升级奖励积分失败: userID=%d, error: %v", userID, err)
			}
		}
		log.Infof("支付确认并完成升级: userID=%d, plan=%s, session=%s", userID, session.Plan, sessionID)
	} else {
		log.Infof("支付确认（非 Pro 套餐，无升级副作用）: userID=%d, plan=%s, session=%s", userID, session.Plan, sessionID)
	}

	result.Processed = true
	return result, nil
}

// planGrantsPro 返回套餐是否附带 Pro 会员资格。
// starter 是纯积分套餐，不改变会员状态。
func planGrantsPro(plan string) bool {
	return plan == "pro" || plan == "power"
}

func clientReference(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
