package repository

import (
	"context"
	"errors"
	"time"

	"loyaltyengine/internal/model"

	"gorm.io/gorm"
)

var (
	ErrPointConfigNotFound  = errors.New("该产品未对此参与者类别配置积分")
	ErrPointConfigAmbiguous = errors.New("该产品的积分配置存在歧义")
)

type PointConfigRepository struct {
	db *gorm.DB
}

func NewPointConfigRepository(db *gorm.DB) *PointConfigRepository {
	return &PointConfigRepository{db: db}
}

// Resolve 解析 (SKU, 类别) 在 asOf 时点的积分费率
// 带时间窗的配置必须覆盖 asOf；同时命中多条视为配置错误直接拒绝，
// 不做"取最新/取最具体"的猜测
func (r *PointConfigRepository) Resolve(ctx context.Context, tx *gorm.DB, sku string, category model.Category, asOf time.Time) (*model.PointConfig, error) {
	if tx == nil {
		tx = r.db
	}

	var configs []model.PointConfig
	err := tx.WithContext(ctx).
		Where("sku = ? AND category = ?", sku, string(category)).
		Where("valid_from IS NULL OR valid_from <= ?", asOf).
		Where("valid_to IS NULL OR valid_to >= ?", asOf).
		Limit(2).
		Find(&configs).Error
	if err != nil {
		return nil, err
	}

	switch len(configs) {
	case 0:
		return nil, ErrPointConfigNotFound
	case 1:
		return &configs[0], nil
	default:
		return nil, ErrPointConfigAmbiguous
	}
}
