package service

import (
	"context"
	"errors"
	"time"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/model"
	"consumerai-go/internal/repository"
	"consumerai-go/pkg/kafka"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/notify"
	"consumerai-go/pkg/tasks"

	"gorm.io/gorm"
)

// CreditService 接口定义了积分账本的业务操作。
type CreditService interface {
	// Award 给用户增加积分并记录流水，返回最新余额。
	// Kafka 事件与 webhook 通知是尽力而为的副作用，失败只记日志。
	Award(ctx context.Context, userID uint, sourceID string, points int) (int, error)
	// Spend 扣减积分，余额不足返回 Conflict。
	Spend(userID uint, cost int) (int, error)
	// Balance 返回当前余额；从未获得过积分的用户返回 NotFound。
	Balance(userID uint) (int, error)
}

// creditService 是 CreditService 接口的实现。
type creditService struct {
	creditRepo repository.CreditRepository
	notifier   *notify.Client
}

// NewCreditService 创建一个新的 CreditService 实例。
func NewCreditService(creditRepo repository.CreditRepository, notifier *notify.Client) CreditService {
	return &creditService{
		creditRepo: creditRepo,
		notifier:   notifier,
	}
}

// Award 是所有积分奖励的唯一入口（点击奖励、Pro 升级赠送共用）。
func (s *creditService) Award(ctx context.Context, userID uint, sourceID string, points int) (int, error) {
	if points <= 0 {
		return 0, apperr.New(apperr.Validation, "奖励分值必须为正数")
	}

	balance, err := s.creditRepo.AwardCredits(userID, points)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "积分奖励失败", err)
	}

	// 审计流水失败不回滚余额，只记日志
	click := &model.CreditBuilderClick{
		UserID: userID,
		LinkID: sourceID,
		Points: points,
	}
	if err := s.creditRepo.LogClick(click); err != nil {
		log.Errorf("记录积分流水失败: userID=%d, source=%s, error: %v", userID, sourceID, err)
	}

	evt := tasks.CreditEvent{
		UserID:    userID,
		SourceID:  sourceID,
		Points:    points,
		Balance:   balance,
		EmittedAt: time.Now(),
	}
	if err := kafka.ProduceCreditEvent(evt); err != nil {
		log.Errorf("发送积分事件失败: userID=%d, error: %v", userID, err)
	}
	if s.notifier.Enabled() {
		if err := s.notifier.Post(ctx, evt); err != nil {
			log.Errorf("积分事件 webhook 通知失败: userID=%d, error: %v", userID, err)
		}
	}

	return balance, nil
}

// Spend 扣减积分。
func (s *creditService) Spend(userID uint, cost int) (int, error) {
	if cost <= 0 {
		return 0, apperr.New(apperr.Validation, "扣减分值必须为正数")
	}

	balance, err := s.creditRepo.SpendCredits(userID, cost)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return 0, apperr.New(apperr.Conflict, "积分余额不足")
		}
		return 0, apperr.Wrap(apperr.Internal, "积分扣减失败", err)
	}
	return balance, nil
}

// Balance 返回当前余额。
func (s *creditService) Balance(userID uint) (int, error) {
	balance, err := s.creditRepo.GetCredits(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.New(apperr.NotFound, "暂无积分记录")
		}
		return 0, apperr.Wrap(apperr.Internal, "查询积分失败", err)
	}
	return balance, nil
}
