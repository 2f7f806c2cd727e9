package service

import (
	"regexp"
	"strings"
	"testing"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/model"
	"consumerai-go/internal/repository"

	"gorm.io/gorm"
)

// fakeTradelineRepo 记录订单写入，库存语义与真实实现一致。
type fakeTradelineRepo struct {
	tradelines map[uint]*model.Tradeline
	agreements map[uint]*model.SignedAgreement
	orders     []model.TradelineOrder
	nextID     uint
}

func newFakeTradelineRepo() *fakeTradelineRepo {
	return &fakeTradelineRepo{
		tradelines: make(map[uint]*model.Tradeline),
		agreements: make(map[uint]*model.SignedAgreement),
		nextID:     1,
	}
}

func (f *fakeTradelineRepo) FindAll(activeOnly bool) ([]model.Tradeline, error) {
	var out []model.Tradeline
	for _, tl := range f.tradelines {
		if !activeOnly || tl.Active {
			out = append(out, *tl)
		}
	}
	return out, nil
}

func (f *fakeTradelineRepo) FindByID(id uint) (*model.Tradeline, error) {
	if tl, ok := f.tradelines[id]; ok {
		return tl, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTradelineRepo) Upsert(tl *model.Tradeline) error {
	f.tradelines[tl.ID] = tl
	return nil
}

func (f *fakeTradelineRepo) DecrementStock(id uint, quantity int) error {
	tl, ok := f.tradelines[id]
	if !ok || tl.StockCount < quantity {
		return repository.ErrInsufficientStock
	}
	tl.StockCount -= quantity
	return nil
}

func (f *fakeTradelineRepo) CreateOrder(order *model.TradelineOrder) error {
	order.ID = f.nextID
	f.nextID++
	f.orders = append(f.orders, *order)
	return nil
}

func (f *fakeTradelineRepo) FindOrdersByUserID(userID uint) ([]model.TradelineOrder, error) {
	var out []model.TradelineOrder
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeTradelineRepo) CreateAgreement(agreement *model.SignedAgreement) error {
	agreement.ID = f.nextID
	f.nextID++
	f.agreements[agreement.ID] = agreement
	return nil
}

func (f *fakeTradelineRepo) FindAgreement(id, userID uint) (*model.SignedAgreement, error) {
	if a, ok := f.agreements[id]; ok && a.UserID == userID {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func signTestAgreement(t *testing.T, svc TradelineService, userID uint) uint {
	t.Helper()
	agreementID, err := svc.SignAgreement(userID, SignAgreementInput{
		FullName:       "Jane Doe",
		Email:          "jane@example.com",
		SignatureImage: "data:image/png;base64,iVBORw0KGgo=",
	})
	if err != nil {
		t.Fatalf("签署协议失败: %v", err)
	}
	return agreementID
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	repo := newFakeTradelineRepo()
	repo.tradelines[1] = &model.Tradeline{ID: 1, Name: "Test", PriceCents: 10000, StockCount: 2, Active: true}
	svc := NewTradelineService(repo)
	agreementID := signTestAgreement(t, svc, 1)

	_, err := svc.CreateOrder(1, CreateOrderInput{TradelineID: 1, AgreementID: agreementID, Quantity: 5})
	if err == nil {
		t.Fatal("库存不足时应当失败")
	}
	if apperr.KindOf(err) != apperr.Conflict {
		t.Errorf("错误分类不符: got %v, want Conflict", apperr.KindOf(err))
	}
	if len(repo.orders) != 0 {
		t.Errorf("失败的下单不应产生订单行: got %d", len(repo.orders))
	}
	if repo.tradelines[1].StockCount != 2 {
		t.Errorf("失败的下单不应扣减库存: got %d, want 2", repo.tradelines[1].StockCount)
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	repo := newFakeTradelineRepo()
	repo.tradelines[1] = &model.Tradeline{ID: 1, Name: "Test", PriceCents: 10000, StockCount: 5, Active: true}
	svc := NewTradelineService(repo)
	agreementID := signTestAgreement(t, svc, 1)

	order, err := svc.CreateOrder(1, CreateOrderInput{TradelineID: 1, AgreementID: agreementID, Quantity: 2})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}
	if order.TotalCents != 20000 {
		t.Errorf("订单金额不符: got %d, want 20000", order.TotalCents)
	}
	if order.Status != model.OrderStatusPending {
		t.Errorf("新订单状态应为 pending: got %s", order.Status)
	}
	if repo.tradelines[1].StockCount != 3 {
		t.Errorf("库存应扣减到 3: got %d", repo.tradelines[1].StockCount)
	}
}

func TestCreateOrderRequiresAgreement(t *testing.T) {
	repo := newFakeTradelineRepo()
	repo.tradelines[1] = &model.Tradeline{ID: 1, StockCount: 5, Active: true}
	svc := NewTradelineService(repo)

	_, err := svc.CreateOrder(1, CreateOrderInput{TradelineID: 1, AgreementID: 99, Quantity: 1})
	if err == nil {
		t.Fatal("未签署协议时应当失败")
	}
	if apperr.KindOf(err) != apperr.Validation {
		t.Errorf("错误分类不符: got %v, want Validation", apperr.KindOf(err))
	}
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^TL-[0-9A-Z]+-[0-9A-F]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		num := GenerateOrderNumber()
		if !pattern.MatchString(num) {
			t.Fatalf("订单号格式不符: %s", num)
		}
		if !strings.HasPrefix(num, "TL-") {
			t.Fatalf("订单号应以 TL- 开头: %s", num)
		}
		seen[num] = true
	}
	if len(seen) < 2 {
		t.Error("订单号缺少随机性")
	}
}
