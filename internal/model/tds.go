package model

import (
	"time"
)

const (
	TdsStatusActive   = "active"
	TdsStatusSettled  = "settled"
	TdsStatusReverted = "reverted"
)

// TdsRecord 税款代扣记录表
// 每个 (参与者, 财年) 一行，首次发生代扣时懒创建
// kitty 是本财年累计未结算的代扣额，达到阈值后整体转入 deducted 并结算
type TdsRecord struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             int64      `gorm:"uniqueIndex:uq_tds_user_fy;not null" json:"user_id"`
	FinancialYear      string     `gorm:"type:varchar(9);uniqueIndex:uq_tds_user_fy;not null" json:"financial_year"` // 形如 2024-2025
	Kitty              int64      `gorm:"column:tds_kitty;not null;default:0" json:"tds_kitty"`
	Deducted           int64      `gorm:"column:tds_deducted;not null;default:0" json:"tds_deducted"`
	ReversedAmount     int64      `gorm:"not null;default:0" json:"reversed_amount"`
	Status             string     `gorm:"type:varchar(10);index;not null;default:active" json:"status"`
	SettledAt          *time.Time `json:"settled_at"`
	TransactionCount   int        `gorm:"not null;default:0" json:"transaction_count"`
	LastDeductedAmount int64      `gorm:"not null;default:0" json:"last_deducted_amount"`
	LastDeductionAt    *time.Time `json:"last_deduction_at"`
	Metadata           string     `gorm:"type:text" json:"metadata"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TdsRecord) TableName() string {
	return "tds_records"
}
