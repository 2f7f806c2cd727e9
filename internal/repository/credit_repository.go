package repository

import (
	"errors"

	"consumerai-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientCredits 表示余额不足以完成本次扣减。
var ErrInsufficientCredits = errors.New("insufficient credits")

// CreditRepository 接口定义了积分账本的数据操作。
// 余额变更必须是单条原子语句：读-改-写在并发奖励下会丢失更新。
type CreditRepository interface {
	// AwardCredits 以“插入或累加”的方式给用户增加积分，返回最新余额。
	AwardCredits(userID uint, points int) (int, error)
	// SpendCredits 在余额充足的前提下扣减积分，返回最新余额；
	// 余额不足时返回 ErrInsufficientCredits，不产生任何写入。
	SpendCredits(userID uint, cost int) (int, error)
	// GetCredits 返回用户当前余额；无记录时返回 gorm.ErrRecordNotFound。
	GetCredits(userID uint) (int, error)
	// LogClick 追加一条点击奖励流水（只写不读的审计记录）。
	LogClick(click *model.CreditBuilderClick) error
}

// creditRepository 是 CreditRepository 接口的 GORM 实现。
type creditRepository struct {
	db *gorm.DB
}

// NewCreditRepository 创建一个新的 CreditRepository 实例。
func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &creditRepository{db: db}
}

// AwardCredits 通过 ON DUPLICATE KEY UPDATE credits = credits + ? 实现原子累加。
func (r *creditRepository) AwardCredits(userID uint, points int) (int, error) {
	record := model.UserCredit{UserID: userID, Credits: points}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"credits": gorm.Expr("credits + ?", points),
		}),
	}).Create(&record).Error
	if err != nil {
		return 0, err
	}
	return r.GetCredits(userID)
}

// SpendCredits 的余额保护放在 UPDATE 的 WHERE 子句里，
// 保证检查与扣减是同一条语句。
func (r *creditRepository) SpendCredits(userID uint, cost int) (int, error) {
	res := r.db.Model(&model.UserCredit{}).
		Where("user_id = ? AND credits >= ?", userID, cost).
		Update("credits", gorm.Expr("credits - ?", cost))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientCredits
	}
	return r.GetCredits(userID)
}

// GetCredits 返回用户当前余额。
func (r *creditRepository) GetCredits(userID uint) (int, error) {
	var record model.UserCredit
	err := r.db.Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		return 0, err
	}
	return record.Credits, nil
}

// LogClick 追加一条点击流水。
func (r *creditRepository) LogClick(click *model.CreditBuilderClick) error {
	return r.db.Create(click).Error
}
