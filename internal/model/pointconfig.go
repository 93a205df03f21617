package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PointConfig 积分费率配置表
// (SKU, 参与者类别) 维度的单件积分数，可带生效时间窗
// 同一时点同一组合出现多条配置属于配置错误，解析时会被拒绝
type PointConfig struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID      int64           `gorm:"not null;default:0" json:"client_id"`
	Sku           string          `gorm:"type:varchar(64);index;not null" json:"sku"`
	Category      string          `gorm:"type:varchar(32);index;not null" json:"category"`
	PointsPerUnit decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"points_per_unit"`
	ValidFrom     *time.Time      `json:"valid_from"`
	ValidTo       *time.Time      `json:"valid_to"`
	Remarks       string          `gorm:"type:varchar(256)" json:"remarks"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (PointConfig) TableName() string {
	return "sku_point_config"
}
