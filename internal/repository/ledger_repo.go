package repository

import (
	"context"

	"loyaltyengine/internal/model"

	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create 追加一行台账，开闭余额由调用方在同一事务内算好
func (r *LedgerRepository) Create(ctx context.Context, tx *gorm.DB, tables model.CategoryTableSet, entry *model.LedgerEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Table(tables.Ledger).Create(entry).Error
}
