package model

import "time"

// Tradeline 对应于数据库中的 'tradelines' 表，是可售卖的信用账户目录项。
type Tradeline struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string    `gorm:"type:varchar(200);not null" json:"name"`
	Bank             string    `gorm:"type:varchar(100);not null" json:"bank"`
	PriceCents       int64     `gorm:"not null;column:price_cents" json:"priceCents"`
	CreditLimitCents int64     `gorm:"not null;column:credit_limit_cents" json:"creditLimitCents"`
	StockCount       int       `gorm:"not null;default:0;column:stock_count" json:"stockCount"`
	ReportingDate    string    `gorm:"type:varchar(20);column:reporting_date" json:"reportingDate"`
	Active           bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Tradeline) TableName() string {
	return "tradelines"
}

// 订单状态。订单创建后始终为 pending，
// 支付完成只触发通知副作用，不在此表上做状态机流转。
const (
	OrderStatusPending = "pending"
)

// TradelineOrder 对应于数据库中的 'tradeline_orders' 表。
type TradelineOrder struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string    `gorm:"type:varchar(40);not null;uniqueIndex;column:order_number" json:"orderNumber"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	TradelineID uint      `gorm:"not null;column:tradeline_id" json:"tradelineId"`
	AgreementID uint      `gorm:"not null;column:agreement_id" json:"agreementId"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	TotalCents  int64     `gorm:"not null;column:total_cents" json:"totalCents"`
	Status      string    `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (TradelineOrder) TableName() string {
	return "tradeline_orders"
}

// SignedAgreement 对应于数据库中的 'signed_agreements' 表。
// 签名图片以 data URL 形式内联存储。
type SignedAgreement struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"userId"`
	FullName       string    `gorm:"type:varchar(200);not null;column:full_name" json:"fullName"`
	Email          string    `gorm:"type:varchar(200);not null" json:"email"`
	SignatureImage string    `gorm:"type:mediumtext;not null;column:signature_image" json:"-"`
	SignedAt       time.Time `gorm:"autoCreateTime;column:signed_at" json:"signedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (SignedAgreement) TableName() string {
	return "signed_agreements"
}
