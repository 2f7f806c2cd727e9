package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/model"
	"consumerai-go/internal/repository"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/token"

	"gorm.io/gorm"
)

// SignAgreementInput 是签署购买协议的输入。
type SignAgreementInput struct {
	FullName       string `json:"fullName" binding:"required"`
	Email          string `json:"email" binding:"required"`
	SignatureImage string `json:"signatureImage" binding:"required"`
}

// CreateOrderInput 是创建订单的输入。
type CreateOrderInput struct {
	TradelineID uint `json:"tradelineId" binding:"required"`
	AgreementID uint `json:"agreementId" binding:"required"`
	Quantity    int  `json:"quantity"`
}

// SyncResult 汇总一次目录同步的结果。
type SyncResult struct {
	Synced int `json:"synced"`
	Errors int `json:"errors"`
}

// TradelineService 接口定义了交易线目录与订单的业务操作。
type TradelineService interface {
	List() ([]model.Tradeline, error)
	SignAgreement(userID uint, input SignAgreementInput) (uint, error)
	// CreateOrder 校验协议归属与库存后创建订单。
	// 库存不足返回 Conflict 且不产生任何订单行。
	CreateOrder(userID uint, input CreateOrderInput) (*model.TradelineOrder, error)
	ListOrders(userID uint) ([]model.TradelineOrder, error)
	// Sync 将内置目录数据逐条写入数据库，返回成功与失败计数。
	Sync() (*SyncResult, error)
	// Seed 与 Sync 相同，但只在目录为空时写入。
	Seed() (*SyncResult, error)
}

// tradelineService 是 TradelineService 接口的实现。
type tradelineService struct {
	tradelineRepo repository.TradelineRepository
}

// NewTradelineService 创建一个新的 TradelineService 实例。
func NewTradelineService(tradelineRepo repository.TradelineRepository) TradelineService {
	return &tradelineService{tradelineRepo: tradelineRepo}
}

// List 返回上架中的目录。
func (s *tradelineService) List() ([]model.Tradeline, error) {
	tradelines, err := s.tradelineRepo.FindAll(true)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "获取目录失败", err)
	}
	return tradelines, nil
}

// SignAgreement 保存一份签署的购买协议，返回协议 ID。
func (s *tradelineService) SignAgreement(userID uint, input SignAgreementInput) (uint, error) {
	if input.FullName == "" || input.Email == "" || input.SignatureImage == "" {
		return 0, apperr.New(apperr.Validation, "姓名、邮箱和签名不能为空")
	}
	if !strings.HasPrefix(input.SignatureImage, "data:image/") {
		return 0, apperr.New(apperr.Validation, "签名图片格式无效")
	}

	agreement := &model.SignedAgreement{
		UserID:         userID,
		FullName:       input.FullName,
		Email:          input.Email,
		SignatureImage: input.SignatureImage,
	}
	if err := s.tradelineRepo.CreateAgreement(agreement); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "保存协议失败", err)
	}
	return agreement.ID, nil
}

// CreateOrder 创建订单。库存扣减先于订单写入，保证超卖不可能发生。
func (s *tradelineService) CreateOrder(userID uint, input CreateOrderInput) (*model.TradelineOrder, error) {
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	if _, err := s.tradelineRepo.FindAgreement(input.AgreementID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Validation, "请先签署购买协议")
		}
		return nil, apperr.Wrap(apperr.Internal, "创建订单失败", err)
	}

	tradeline, err := s.tradelineRepo.FindByID(input.TradelineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "交易线不存在")
		}
		return nil, apperr.Wrap(apperr.Internal, "创建订单失败", err)
	}
	if !tradeline.Active {
		return nil, apperr.New(apperr.NotFound, "交易线已下架")
	}

	if err := s.tradelineRepo.DecrementStock(tradeline.ID, quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, apperr.New(apperr.Conflict, "库存不足")
		}
		return nil, apperr.Wrap(apperr.Internal, "创建订单失败", err)
	}

	order := &model.TradelineOrder{
		OrderNumber: GenerateOrderNumber(),
		UserID:      userID,
		TradelineID: tradeline.ID,
		AgreementID: input.AgreementID,
		Quantity:    quantity,
		TotalCents:  tradeline.PriceCents * int64(quantity),
		Status:      model.OrderStatusPending,
	}
	if err := s.tradelineRepo.CreateOrder(order); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "创建订单失败", err)
	}

	log.Infof("创建订单成功: %s (userID=%d, tradelineID=%d, qty=%d)",
		order.OrderNumber, userID, tradeline.ID, quantity)
	return order, nil
}

// ListOrders 返回用户的订单列表。
func (s *tradelineService) ListOrders(userID uint) ([]model.TradelineOrder, error) {
	orders, err := s.tradelineRepo.FindOrdersByUserID(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "获取订单失败", err)
	}
	return orders, nil
}

// Sync 将内置目录数据逐条 upsert，单条失败不中断。
func (s *tradelineService) Sync() (*SyncResult, error) {
	result := &SyncResult{}
	for i := range catalogSeed {
		tl := catalogSeed[i]
		if err := s.tradelineRepo.Upsert(&tl); err != nil {
			log.Errorf("同步交易线失败: id=%d, error: %v", tl.ID, err)
			result.Errors++
			continue
		}
		result.Synced++
	}
	return result, nil
}

// Seed 只在目录为空时执行同步。
func (s *tradelineService) Seed() (*SyncResult, error) {
	existing, err := s.tradelineRepo.FindAll(false)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "初始化目录失败", err)
	}
	if len(existing) > 0 {
		return &SyncResult{}, nil
	}
	return s.Sync()
}

// GenerateOrderNumber 生成形如 TL-<unix秒base36>-<随机后缀> 的订单号。
func GenerateOrderNumber() string {
	ts := strconv.FormatInt(time.Now().Unix(), 36)
	return fmt.Sprintf("TL-%s-%s", strings.ToUpper(ts), strings.ToUpper(token.GenerateRandomString(4)))
}

// catalogSeed 是目录的内置数据源，sync/seed 以它为准写入数据库。
var catalogSeed = []model.Tradeline{
	{ID: 1, Name: "Capital One Platinum", Bank: "Capital One", PriceCents: 29900, CreditLimitCents: 500000, StockCount: 10, ReportingDate: "15th", Active: true},
	{ID: 2, Name: "Chase Freedom Unlimited", Bank: "Chase", PriceCents: 49900, CreditLimitCents: 1200000, StockCount: 8, ReportingDate: "1st", Active: true},
	{ID: 3, Name: "Discover it Cash Back", Bank: "Discover", PriceCents: 39900, CreditLimitCents: 800000, StockCount: 12, ReportingDate: "22nd", Active: true},
	{ID: 4, Name: "Amex Blue Cash Everyday", Bank: "American Express", PriceCents: 69900, CreditLimitCents: 1500000, StockCount: 5, ReportingDate: "8th", Active: true},
	{ID: 5, Name: "Citi Double Cash", Bank: "Citi", PriceCents: 44900, CreditLimitCents: 1000000, StockCount: 7, ReportingDate: "28th", Active: true},
	{ID: 6, Name: "Bank of America Customized Cash", Bank: "Bank of America", PriceCents: 54900, CreditLimitCents: 1100000, StockCount: 6, ReportingDate: "12th", Active: true},
}
