package service

import (
	"context"
	"testing"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/config"
	"consumerai-go/internal/model"
	"consumerai-go/pkg/payments"

	"gorm.io/gorm"
)

// fakePaymentsClient 记录每一次对支付服务商的调用，
// GetCheckoutSession 返回预先配置的会话。
type fakePaymentsClient struct {
	createCalls int
	getCalls    int
	session     *payments.CheckoutSession
}

func (f *fakePaymentsClient) CreateCheckoutSession(ctx context.Context, priceID, plan, customerEmail, clientReferenceID, idempotencyKey string) (*payments.CheckoutSession, error) {
	f.createCalls++
	return &payments.CheckoutSession{
		ID:                "cs_test",
		URL:               "https://checkout.test/cs_test",
		ClientReferenceID: clientReferenceID,
		Plan:              plan,
	}, nil
}

func (f *fakePaymentsClient) GetCheckoutSession(ctx context.Context, sessionID string) (*payments.CheckoutSession, error) {
	f.getCalls++
	if f.session != nil {
		return f.session, nil
	}
	return &payments.CheckoutSession{ID: sessionID, Paid: false}, nil
}

// fakeUserRepo 只实现结账流程用到的查询。
type fakeUserRepo struct {
	users map[uint]*model.User
}

func (f *fakeUserRepo) Create(user *model.User) error { return nil }
func (f *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) Update(user *model.User) error { return nil }
func (f *fakeUserRepo) FindWithPagination(offset, limit int) ([]model.User, int64, error) {
	return nil, 0, nil
}
func (f *fakeUserRepo) MarkPro(userID uint) error { return nil }

// fakeUserService 记录 MarkPro 调用。
type fakeUserService struct {
	markProCalls []uint
}

func (f *fakeUserService) Register(username, password, email string) (*model.User, error) {
	return nil, nil
}
func (f *fakeUserService) Login(username, password string) (*model.User, *TokenPair, error) {
	return nil, nil, nil
}
func (f *fakeUserService) GetProfile(userID uint) (*model.User, error)        { return nil, nil }
func (f *fakeUserService) Logout(ctx context.Context, tokenString string) error { return nil }
func (f *fakeUserService) RefreshToken(refreshToken string) (*TokenPair, error) {
	return nil, nil
}
func (f *fakeUserService) IsTokenBlacklisted(ctx context.Context, tokenString string) bool {
	return false
}
func (f *fakeUserService) MarkPro(userID uint) error {
	f.markProCalls = append(f.markProCalls, userID)
	return nil
}

// fakeCreditService 记录奖励调用。
type fakeCreditService struct {
	awards []int
}

func (f *fakeCreditService) Award(ctx context.Context, userID uint, sourceID string, points int) (int, error) {
	f.awards = append(f.awards, points)
	return points, nil
}
func (f *fakeCreditService) Spend(userID uint, cost int) (int, error) { return 0, nil }
func (f *fakeCreditService) Balance(userID uint) (int, error)         { return 0, nil }

// fakeCheckoutRepo 在内存中复刻已处理标记的首登记语义。
type fakeCheckoutRepo struct {
	processed map[string]bool
}

func newFakeCheckoutRepo() *fakeCheckoutRepo {
	return &fakeCheckoutRepo{processed: make(map[string]bool)}
}

func (f *fakeCheckoutRepo) MarkProcessed(ctx context.Context, sessionID string) (bool, error) {
	if f.processed[sessionID] {
		return false, nil
	}
	f.processed[sessionID] = true
	return true, nil
}

func (f *fakeCheckoutRepo) ClearProcessed(ctx context.Context, sessionID string) error {
	delete(f.processed, sessionID)
	return nil
}

func testStripeConfig() config.StripeConfig {
	return config.StripeConfig{
		PricePlans: map[string]string{
			"starter": "price_starter",
			"pro":     "price_pro",
			"power":   "price_power",
		},
	}
}

type checkoutFixture struct {
	svc       CheckoutService
	payments  *fakePaymentsClient
	userSvc   *fakeUserService
	creditSvc *fakeCreditService
	repo      *fakeCheckoutRepo
}

func newCheckoutFixture(session *payments.CheckoutSession) *checkoutFixture {
	f := &checkoutFixture{
		payments:  &fakePaymentsClient{session: session},
		userSvc:   &fakeUserService{},
		creditSvc: &fakeCreditService{},
		repo:      newFakeCheckoutRepo(),
	}
	f.svc = NewCheckoutService(testStripeConfig(),
		&fakeUserRepo{users: map[uint]*model.User{1: {ID: 1, Email: "a@b.c"}}},
		f.userSvc, f.creditSvc, f.payments, f.repo, 100)
	return f
}

func TestCreateSessionUnknownPlan(t *testing.T) {
	f := newCheckoutFixture(nil)

	_, err := f.svc.CreateSession(context.Background(), 1, "gold")
	if err == nil {
		t.Fatal("未知套餐应当失败")
	}
	if apperr.KindOf(err) != apperr.Validation {
		t.Errorf("错误分类不符: got %v, want Validation", apperr.KindOf(err))
	}
	if f.payments.createCalls != 0 {
		t.Errorf("校验失败后不应调用支付服务商: calls=%d", f.payments.createCalls)
	}
}

func TestCreateSessionMissingUser(t *testing.T) {
	f := newCheckoutFixture(nil)

	_, err := f.svc.CreateSession(context.Background(), 99, "pro")
	if err == nil {
		t.Fatal("用户不存在时应当失败")
	}
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("错误分类不符: got %v, want NotFound", apperr.KindOf(err))
	}
	if f.payments.createCalls != 0 {
		t.Errorf("用户校验失败后不应调用支付服务商: calls=%d", f.payments.createCalls)
	}
}

func TestCreateSessionValidPlan(t *testing.T) {
	f := newCheckoutFixture(nil)

	url, err := f.svc.CreateSession(context.Background(), 1, "pro")
	if err != nil {
		t.Fatalf("创建会话失败: %v", err)
	}
	if url == "" {
		t.Error("应当返回跳转地址")
	}
	if f.payments.createCalls != 1 {
		t.Errorf("应当恰好调用一次支付服务商: calls=%d", f.payments.createCalls)
	}
}

func TestVerifyUnpaidSession(t *testing.T) {
	f := newCheckoutFixture(&payments.CheckoutSession{
		ID: "cs_test", Paid: false, ClientReferenceID: "1", Plan: "pro",
	})

	result, err := f.svc.Verify(context.Background(), 1, "cs_test")
	if err != nil {
		t.Fatalf("校验失败: %v", err)
	}
	if result.Paid || result.Processed {
		t.Errorf("未支付会话不应有任何副作用: %+v", result)
	}
	if len(f.userSvc.markProCalls) != 0 {
		t.Error("未支付会话不应触发升级")
	}
}

func TestVerifyPaidProSessionUpgradesOnce(t *testing.T) {
	f := newCheckoutFixture(&payments.CheckoutSession{
		ID: "cs_test", Paid: true, ClientReferenceID: "1", Plan: "pro",
	})

	result, err := f.svc.Verify(context.Background(), 1, "cs_test")
	if err != nil {
		t.Fatalf("校验失败: %v", err)
	}
	if !result.Paid || !result.Processed {
		t.Errorf("已支付会话应标记为已处理: %+v", result)
	}
	if len(f.userSvc.markProCalls) != 1 || f.userSvc.markProCalls[0] != 1 {
		t.Errorf("应当恰好升级一次购买者: %v", f.userSvc.markProCalls)
	}
	if len(f.creditSvc.awards) != 1 || f.creditSvc.awards[0] != 100 {
		t.Errorf("应当发放一次升级奖励: %v", f.creditSvc.awards)
	}

	// 重复校验不重复升级
	result, err = f.svc.Verify(context.Background(), 1, "cs_test")
	if err != nil {
		t.Fatalf("二次校验失败: %v", err)
	}
	if !result.Processed {
		t.Error("二次校验仍应报告已处理")
	}
	if len(f.userSvc.markProCalls) != 1 {
		t.Errorf("重复校验不应再次升级: %v", f.userSvc.markProCalls)
	}
}

func TestVerifyRejectsForeignSession(t *testing.T) {
	// 会话属于用户 2，用户 1 冒用会话号
	f := newCheckoutFixture(&payments.CheckoutSession{
		ID: "cs_test", Paid: true, ClientReferenceID: "2", Plan: "pro",
	})

	_, err := f.svc.Verify(context.Background(), 1, "cs_test")
	if err == nil {
		t.Fatal("冒用他人会话应当失败")
	}
	if apperr.KindOf(err) != apperr.Forbidden {
		t.Errorf("错误分类不符: got %v, want Forbidden", apperr.KindOf(err))
	}
	if len(f.userSvc.markProCalls) != 0 {
		t.Errorf("冒用请求不应触发升级: %v", f.userSvc.markProCalls)
	}
	// 标记未被消耗，真正的购买者仍能完成升级
	if f.repo.processed["cs_test"] {
		t.Error("归属校验失败不应消耗已处理标记")
	}
}

func TestVerifyPaidStarterSessionNoUpgrade(t *testing.T) {
	f := newCheckoutFixture(&payments.CheckoutSession{
		ID: "cs_test", Paid: true, ClientReferenceID: "1", Plan: "starter",
	})

	result, err := f.svc.Verify(context.Background(), 1, "cs_test")
	if err != nil {
		t.Fatalf("校验失败: %v", err)
	}
	if !result.Paid || !result.Processed {
		t.Errorf("已支付会话应标记为已处理: %+v", result)
	}
	if len(f.userSvc.markProCalls) != 0 {
		t.Errorf("starter 套餐不应触发 Pro 升级: %v", f.userSvc.markProCalls)
	}
	if len(f.creditSvc.awards) != 0 {
		t.Errorf("starter 套餐不应发放升级奖励: %v", f.creditSvc.awards)
	}
}
