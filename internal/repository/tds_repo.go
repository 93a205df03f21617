package repository

import (
	"context"
	"errors"

	"loyaltyengine/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TdsRepository struct {
	db *gorm.DB
}

func NewTdsRepository(db *gorm.DB) *TdsRepository {
	return &TdsRepository{db: db}
}

func (r *TdsRepository) GetByUserAndFy(ctx context.Context, tx *gorm.DB, userID int64, fy string) (*model.TdsRecord, error) {
	if tx == nil {
		tx = r.db
	}
	var record model.TdsRecord
	err := tx.WithContext(ctx).
		Where("user_id = ? AND financial_year = ?", userID, fy).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetOrCreate 取 (参与者, 财年) 的代扣记录，首次代扣时懒创建
// 唯一索引 + DoNothing 兜底并发下的重复创建
func (r *TdsRepository) GetOrCreate(ctx context.Context, tx *gorm.DB, userID int64, fy string) (*model.TdsRecord, error) {
	record, err := r.GetByUserAndFy(ctx, tx, userID, fy)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}

	newRecord := &model.TdsRecord{
		UserID:        userID,
		FinancialYear: fy,
		Status:        model.TdsStatusActive,
	}
	err = tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "financial_year"}},
			DoNothing: true,
		}).
		Create(newRecord).Error
	if err != nil {
		return nil, err
	}

	return r.GetByUserAndFy(ctx, tx, userID, fy)
}

func (r *TdsRepository) Create(ctx context.Context, tx *gorm.DB, record *model.TdsRecord) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(record).Error
}

func (r *TdsRepository) Save(ctx context.Context, tx *gorm.DB, record *model.TdsRecord) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(record).Error
}

// ListActiveUserIDs 某财年下仍处于 active 的参与者，供财年重置批处理
func (r *TdsRepository) ListActiveUserIDs(ctx context.Context, fy string) ([]int64, error) {
	var userIDs []int64
	err := r.db.WithContext(ctx).
		Model(&model.TdsRecord{}).
		Where("financial_year = ? AND status = ?", fy, model.TdsStatusActive).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}
