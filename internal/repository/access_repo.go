package repository

import (
	"context"
	"time"

	"loyaltyengine/internal/model"

	"gorm.io/gorm"
)

type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// CountForUser 该用户名下的准入规则总数（含失效的）
// 为零表示该用户不受限制
func (r *AccessRepository) CountForUser(ctx context.Context, tx *gorm.DB, userID int64) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.ParticipantSkuAccess{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// HasActiveAccess 是否存在命中该 SKU 的有效准入记录
func (r *AccessRepository) HasActiveAccess(ctx context.Context, tx *gorm.DB, userID int64, sku string, asOf time.Time) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.ParticipantSkuAccess{}).
		Where("user_id = ? AND sku = ? AND is_active = ?", userID, sku, true).
		Where("valid_from IS NULL OR valid_from <= ?", asOf).
		Where("valid_to IS NULL OR valid_to >= ?", asOf).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
