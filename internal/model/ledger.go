package model

import (
	"time"
)

const (
	LedgerTypeCredit = "CREDIT"
	LedgerTypeDebit  = "DEBIT"
)

// LedgerEntry 余额台账表，按类别分表落库（*_ledger）
// 每一行都必须满足 closing_balance - opening_balance == 带符号金额，
// 这是对账的硬性不变量
type LedgerEntry struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64     `gorm:"index;not null" json:"user_id"`
	EarningTypeID    int64     `gorm:"column:earning_type;not null;default:0" json:"earning_type"`
	RedemptionTypeID int64     `gorm:"column:redemption_type;not null;default:0" json:"redemption_type"`
	Amount           int64     `gorm:"not null" json:"amount"`
	Type             string    `gorm:"type:varchar(10);not null" json:"type"` // CREDIT / DEBIT
	Remarks          string    `gorm:"type:varchar(256)" json:"remarks"`
	OpeningBalance   int64     `gorm:"not null" json:"opening_balance"`
	ClosingBalance   int64     `gorm:"not null" json:"closing_balance"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
