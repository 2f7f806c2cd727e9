package service

import (
	"context"
	"sync"
	"testing"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/config"
	"consumerai-go/internal/model"
	"consumerai-go/internal/repository"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/notify"

	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	m.Run()
}

// fakeCreditRepo 在内存中复刻余额变更的原子契约：
// 增减都在锁内完成，检查与扣减不可分割。
type fakeCreditRepo struct {
	mu       sync.Mutex
	balances map[uint]int
	clicks   []model.CreditBuilderClick
}

func newFakeCreditRepo() *fakeCreditRepo {
	return &fakeCreditRepo{balances: make(map[uint]int)}
}

func (f *fakeCreditRepo) AwardCredits(userID uint, points int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] += points
	return f.balances[userID], nil
}

func (f *fakeCreditRepo) SpendCredits(userID uint, cost int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[userID] < cost {
		return 0, repository.ErrInsufficientCredits
	}
	f.balances[userID] -= cost
	return f.balances[userID], nil
}

func (f *fakeCreditRepo) GetCredits(userID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return balance, nil
}

func (f *fakeCreditRepo) LogClick(click *model.CreditBuilderClick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, *click)
	return nil
}

func newTestCreditService(repo repository.CreditRepository) CreditService {
	return NewCreditService(repo, notify.NewClient(config.NotifyConfig{}))
}

func TestAwardArithmetic(t *testing.T) {
	repo := newFakeCreditRepo()
	svc := newTestCreditService(repo)
	ctx := context.Background()

	balance, err := svc.Award(ctx, 1, "link-a", 5)
	if err != nil {
		t.Fatalf("首次奖励失败: %v", err)
	}
	if balance != 5 {
		t.Errorf("首次奖励后余额不符: got %d, want 5", balance)
	}

	balance, err = svc.Award(ctx, 1, "link-b", 3)
	if err != nil {
		t.Fatalf("二次奖励失败: %v", err)
	}
	if balance != 8 {
		t.Errorf("累加后余额不符: got %d, want 8", balance)
	}

	// 无记录的用户首次奖励直接落在奖励分值上
	balance, err = svc.Award(ctx, 2, "link-a", 3)
	if err != nil {
		t.Fatalf("新用户奖励失败: %v", err)
	}
	if balance != 3 {
		t.Errorf("新用户余额不符: got %d, want 3", balance)
	}

	if len(repo.clicks) != 3 {
		t.Errorf("流水条数不符: got %d, want 3", len(repo.clicks))
	}
}

func TestConcurrentAward(t *testing.T) {
	repo := newFakeCreditRepo()
	svc := newTestCreditService(repo)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Award(context.Background(), 1, "link-a", 1); err != nil {
				t.Errorf("并发奖励失败: %v", err)
			}
		}()
	}
	wg.Wait()

	balance, err := svc.Balance(1)
	if err != nil {
		t.Fatalf("查询余额失败: %v", err)
	}
	if balance != 2 {
		t.Errorf("并发奖励丢失更新: got %d, want 2", balance)
	}
}

func TestSpendGuard(t *testing.T) {
	repo := newFakeCreditRepo()
	svc := newTestCreditService(repo)

	if _, err := svc.Award(context.Background(), 1, "link-a", 3); err != nil {
		t.Fatalf("准备余额失败: %v", err)
	}

	// 余额不足：返回 Conflict 且余额不变
	_, err := svc.Spend(1, 5)
	if err == nil {
		t.Fatal("余额不足时应当失败")
	}
	if apperr.KindOf(err) != apperr.Conflict {
		t.Errorf("错误分类不符: got %v, want Conflict", apperr.KindOf(err))
	}
	if balance, _ := svc.Balance(1); balance != 3 {
		t.Errorf("失败的扣减不应改变余额: got %d, want 3", balance)
	}

	// 余额充足：正常扣减
	balance, err := svc.Spend(1, 2)
	if err != nil {
		t.Fatalf("扣减失败: %v", err)
	}
	if balance != 1 {
		t.Errorf("扣减后余额不符: got %d, want 1", balance)
	}
}

func TestBalanceAbsentUser(t *testing.T) {
	svc := newTestCreditService(newFakeCreditRepo())

	_, err := svc.Balance(42)
	if err == nil {
		t.Fatal("无记录用户查询余额应当失败")
	}
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("错误分类不符: got %v, want NotFound", apperr.KindOf(err))
	}
}
