package repository

import (
	"context"
	"errors"

	"loyaltyengine/internal/model"

	"gorm.io/gorm"
)

type MasterDataRepository struct {
	db *gorm.DB
}

func NewMasterDataRepository(db *gorm.DB) *MasterDataRepository {
	return &MasterDataRepository{db: db}
}

// GetActiveValue 取有效主数据值，第二个返回值表示键是否存在
func (r *MasterDataRepository) GetActiveValue(ctx context.Context, tx *gorm.DB, key string) (string, bool, error) {
	if tx == nil {
		tx = r.db
	}
	var record model.MasterData
	err := tx.WithContext(ctx).
		Where("`key` = ? AND is_active = ?", key, true).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return record.Value, true, nil
}
