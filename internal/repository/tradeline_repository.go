package repository

import (
	"errors"

	"consumerai-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientStock 表示库存不足以满足本次下单数量。
var ErrInsufficientStock = errors.New("insufficient stock")

// TradelineRepository 接口定义了交易线目录与订单的数据操作。
type TradelineRepository interface {
	FindAll(activeOnly bool) ([]model.Tradeline, error)
	FindByID(id uint) (*model.Tradeline, error)
	Upsert(tl *model.Tradeline) error
	// DecrementStock 在库存充足的前提下原子扣减库存；
	// 不足时返回 ErrInsufficientStock。
	DecrementStock(id uint, quantity int) error
	CreateOrder(order *model.TradelineOrder) error
	FindOrdersByUserID(userID uint) ([]model.TradelineOrder, error)
	CreateAgreement(agreement *model.SignedAgreement) error
	FindAgreement(id, userID uint) (*model.SignedAgreement, error)
}

// tradelineRepository 是 TradelineRepository 接口的 GORM 实现。
type tradelineRepository struct {
	db *gorm.DB
}

// NewTradelineRepository 创建一个新的 TradelineRepository 实例。
func NewTradelineRepository(db *gorm.DB) TradelineRepository {
	return &tradelineRepository{db: db}
}

// FindAll 检索交易线目录。
func (r *tradelineRepository) FindAll(activeOnly bool) ([]model.Tradeline, error) {
	var tradelines []model.Tradeline
	db := r.db
	if activeOnly {
		db = db.Where("active = ?", true)
	}
	err := db.Order("id asc").Find(&tradelines).Error
	return tradelines, err
}

// FindByID 根据 ID 查找一条交易线。
func (r *tradelineRepository) FindByID(id uint) (*model.Tradeline, error) {
	var tl model.Tradeline
	err := r.db.First(&tl, id).Error
	if err != nil {
		return nil, err
	}
	return &tl, nil
}

// Upsert 按主键插入或覆盖一条目录记录（sync/seed 用）。
func (r *tradelineRepository) Upsert(tl *model.Tradeline) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(tl).Error
}

// DecrementStock 的库存保护放在 UPDATE 的 WHERE 子句里，
// 与积分扣减同样的单语句原子模式。
func (r *tradelineRepository) DecrementStock(id uint, quantity int) error {
	res := r.db.Model(&model.Tradeline{}).
		Where("id = ? AND stock_count >= ?", id, quantity).
		Update("stock_count", gorm.Expr("stock_count - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// CreateOrder 在数据库中创建一条订单记录。
func (r *tradelineRepository) CreateOrder(order *model.TradelineOrder) error {
	return r.db.Create(order).Error
}

// FindOrdersByUserID 查找指定用户的全部订单。
func (r *tradelineRepository) FindOrdersByUserID(userID uint) ([]model.TradelineOrder, error) {
	var orders []model.TradelineOrder
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&orders).Error
	return orders, err
}

// CreateAgreement 在数据库中创建一条签署协议记录。
func (r *tradelineRepository) CreateAgreement(agreement *model.SignedAgreement) error {
	return r.db.Create(agreement).Error
}

// FindAgreement 查找属于指定用户的协议记录。
func (r *tradelineRepository) FindAgreement(id, userID uint) (*model.SignedAgreement, error) {
	var agreement model.SignedAgreement
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&agreement).Error
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}
