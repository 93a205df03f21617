package repository

import (
	"context"
	"errors"

	"loyaltyengine/internal/model"

	"gorm.io/gorm"
)

var ErrEarningTypeNotFound = errors.New("积分类型未配置")

type EarningRepository struct {
	db *gorm.DB
}

func NewEarningRepository(db *gorm.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

// GetEarningTypeByName 按名称取有效的积分类型，缺失属于配置错误
func (r *EarningRepository) GetEarningTypeByName(ctx context.Context, tx *gorm.DB, name string) (*model.EarningType, error) {
	if tx == nil {
		tx = r.db
	}
	var earningType model.EarningType
	err := tx.WithContext(ctx).
		Where("name = ? AND is_active = ?", name, true).
		First(&earningType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEarningTypeNotFound
		}
		return nil, err
	}
	return &earningType, nil
}

func (r *EarningRepository) CreateTransaction(ctx context.Context, tx *gorm.DB, tables model.CategoryTableSet, txn *model.EarningTransaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Table(tables.Transactions).Create(txn).Error
}

func (r *EarningRepository) CreateAuditLog(ctx context.Context, tx *gorm.DB, tables model.CategoryTableSet, logRow *model.EarningAuditLog) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Table(tables.TransactionLogs).Create(logRow).Error
}
