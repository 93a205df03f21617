package model

import (
	"time"
)

// QRCode 产品二维码表
// 上游生产环节批量生成，引擎侧只做一次性领取（is_scanned 只允许 false -> true）
type QRCode struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code              string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`      // 码值，全局唯一
	SecurityCode      string     `gorm:"type:varchar(32);not null" json:"security_code"`         // 防伪码
	Sku               string     `gorm:"type:varchar(64);index;not null" json:"sku"`             // 所属产品SKU
	BatchNumber       string     `gorm:"type:varchar(64)" json:"batch_number"`                   // 生产批次
	ParentQrID        *int64     `gorm:"index" json:"parent_qr_id"`                              // 父码（箱码/盒码层级）
	IsScanned         bool       `gorm:"not null;default:false;index" json:"is_scanned"`         // 是否已被领取
	ScannedBy         *int64     `json:"scanned_by"`                                             // 领取人用户ID
	ManufacturingDate time.Time  `json:"manufacturing_date"`                                     // 生产日期
	LocationAccess    string     `gorm:"type:text" json:"location_access"`                       // 扫码位置，JSON 原样存储
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (QRCode) TableName() string {
	return "qr_codes"
}
