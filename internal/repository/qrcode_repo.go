package repository

import (
	"context"
	"errors"

	"loyaltyengine/internal/model"

	"gorm.io/gorm"
)

var ErrQrNotAvailable = errors.New("二维码无效或已被领取")

type QRCodeRepository struct {
	db *gorm.DB
}

func NewQRCodeRepository(db *gorm.DB) *QRCodeRepository {
	return &QRCodeRepository{db: db}
}

// Claim 在调用方事务内一次性领取二维码
//
// 【关键点】条件更新把"取行锁"和"未被领取"的过滤放在同一条语句里：
// 两个并发请求抢同一个码时，先提交的 UPDATE 命中一行并持锁到事务结束，
// 后来者命中零行，直接拿到业务错误快速失败，不做重试。
// is_scanned 只会 false -> true，永不回退。
func (r *QRCodeRepository) Claim(ctx context.Context, tx *gorm.DB, code string, userID int64, location string) (*model.QRCode, error) {
	result := tx.WithContext(ctx).
		Model(&model.QRCode{}).
		Where("code = ? AND is_scanned = ?", code, false).
		Updates(map[string]interface{}{
			"is_scanned":      true,
			"scanned_by":      userID,
			"location_access": location,
		})

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, ErrQrNotAvailable
	}

	// 同一事务内回读领取后的行
	var qr model.QRCode
	if err := tx.WithContext(ctx).Where("code = ?", code).First(&qr).Error; err != nil {
		return nil, err
	}
	return &qr, nil
}

func (r *QRCodeRepository) GetByCode(ctx context.Context, code string) (*model.QRCode, error) {
	var qr model.QRCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&qr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQrNotAvailable
		}
		return nil, err
	}
	return &qr, nil
}
