package model

import "time"

// UserCredit 对应于数据库中的 'user_credits' 表。
// 每个用户一行，余额只通过原子的“插入或累加”语句变更。
type UserCredit struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex;column:user_id" json:"userId"`
	Credits   int       `gorm:"not null;default:0" json:"credits"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UserCredit) TableName() string {
	return "user_credits"
}

// CreditBuilderClick 对应于数据库中的 'credit_builder_clicks' 表。
// 只追加不回读的审计流水，每次奖励动作一行。
type CreditBuilderClick struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	LinkID    string    `gorm:"type:varchar(100);not null;column:link_id" json:"linkId"`
	Points    int       `gorm:"not null" json:"points"`
	ClickedAt time.Time `gorm:"autoCreateTime;column:clicked_at" json:"clickedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (CreditBuilderClick) TableName() string {
	return "credit_builder_clicks"
}
