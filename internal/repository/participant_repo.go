package repository

import (
	"context"
	"errors"

	"loyaltyengine/internal/model"

	"gorm.io/gorm"
)

var (
	ErrParticipantNotFound = errors.New("参与者账户不存在")
	ErrProfileNotFound     = errors.New("参与者类别档案不存在")
	ErrBalanceNotEnough    = errors.New("积分余额不足")
)

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) GetByUserID(ctx context.Context, tx *gorm.DB, userID int64) (*model.Participant, error) {
	if tx == nil {
		tx = r.db
	}
	var participant model.Participant
	err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *ParticipantRepository) GetProfile(ctx context.Context, tx *gorm.DB, tables model.CategoryTableSet, userID int64) (*model.CategoryProfile, error) {
	if tx == nil {
		tx = r.db
	}
	var profile model.CategoryProfile
	err := tx.WithContext(ctx).Table(tables.Profiles).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// CreditBalances 同一事务内同时增加类别档案余额和中心账户余额
//
// 【关键点】用数据库端的加法更新，绝不在应用层读出再写回：
// 同一参与者两笔并发入账时，加法更新天然不会丢更新
func (r *ParticipantRepository) CreditBalances(ctx context.Context, tx *gorm.DB, tables model.CategoryTableSet, userID int64, amount int64) error {
	result := tx.WithContext(ctx).
		Table(tables.Profiles).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance + ?", amount),
			"total_earnings": gorm.Expr("total_earnings + ?", amount),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}

	result = tx.WithContext(ctx).
		Model(&model.Participant{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance + ?", amount),
			"total_earnings": gorm.Expr("total_earnings + ?", amount),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

// ProfileBalance 同一事务内回读加款后的档案余额，用于台账的开闭余额
// 事务隔离保证其他写入者的增量不会无声插进来
func (r *ParticipantRepository) ProfileBalance(ctx context.Context, tx *gorm.DB, tables model.CategoryTableSet, userID int64) (int64, error) {
	var profile model.CategoryProfile
	err := tx.WithContext(ctx).Table(tables.Profiles).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProfileNotFound
		}
		return 0, err
	}
	return profile.PointsBalance, nil
}

// Debit 条件扣减中心账户余额，余额不足时命中零行
func (r *ParticipantRepository) Debit(ctx context.Context, tx *gorm.DB, userID int64, amount int64) error {
	result := tx.WithContext(ctx).
		Model(&model.Participant{}).
		Where("user_id = ? AND points_balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance - ?", amount),
			"total_redeemed": gorm.Expr("total_redeemed + ?", amount),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		participant, err := r.GetByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if participant.PointsBalance < amount {
			return ErrBalanceNotEnough
		}
		return ErrParticipantNotFound
	}

	return nil
}
