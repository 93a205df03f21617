package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 内置积分类型名称，由主数据预置
const (
	EarningTypeQrScan         = "QR Scan"
	EarningTypeQrScanIndirect = "QR Scan - Indirect"
)

// EarningType 积分类型字典表
type EarningType struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:varchar(256)" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (EarningType) TableName() string {
	return "earning_types"
}

// EarningTransaction 积分交易表，按类别分表落库（*_transactions）
// 只追加，不修改，不删除
// Points 记录实际入账的净积分（代扣后），与余额、台账口径一致
type EarningTransaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	EarningTypeID int64           `gorm:"column:earning_type;not null" json:"earning_type"`
	Points        int64           `gorm:"not null" json:"points"`
	Category      string          `gorm:"type:varchar(64)" json:"category"`
	Sku           string          `gorm:"type:varchar(64)" json:"sku"`
	BatchNumber   string          `gorm:"type:varchar(64)" json:"batch_number"`
	QrCode        string          `gorm:"type:varchar(64);index" json:"qr_code"`
	Remarks       string          `gorm:"type:varchar(256)" json:"remarks"`
	Latitude      decimal.Decimal `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude     decimal.Decimal `gorm:"type:decimal(10,7)" json:"longitude"`
	Metadata      string          `gorm:"type:text" json:"metadata"`
	SchemeID      *int64          `json:"scheme_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

const (
	AuditStatusSuccess = "SUCCESS"
	AuditStatusFailed  = "FAILED"
)

// EarningAuditLog 积分审计日志表，按类别分表落库（*_transaction_logs）
// 独立于交易写入路径的审计镜像，失败的扫码也会在这里留痕
// Points 统一记录税前毛积分，便于跨类别对账比较
type EarningAuditLog struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	EarningTypeID int64           `gorm:"column:earning_type;not null;default:0" json:"earning_type"`
	Points        int64           `gorm:"not null" json:"points"`
	Category      string          `gorm:"type:varchar(64)" json:"category"`
	Sku           string          `gorm:"type:varchar(64)" json:"sku"`
	BatchNumber   string          `gorm:"type:varchar(64)" json:"batch_number"`
	Status        string          `gorm:"type:varchar(32);index;not null" json:"status"`
	QrCode        string          `gorm:"type:varchar(64);index" json:"qr_code"`
	Latitude      decimal.Decimal `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude     decimal.Decimal `gorm:"type:decimal(10,7)" json:"longitude"`
	Metadata      string          `gorm:"type:text" json:"metadata"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}
