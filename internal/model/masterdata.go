package model

import (
	"time"
)

// 代扣比例主数据键：优先取类别专用键，缺省回退到通用键
const (
	TdsPercentageKeyPrefix = "TDS_PERCENTAGE_"
	TdsPercentageFallback  = "TDS_PERCENTAGE"
)

// MasterData 业务主数据键值表
// 引擎侧只读（代扣比例配置），维护入口在管理后台
type MasterData struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string    `gorm:"column:key;type:varchar(64);index;not null" json:"key"`
	Value     string    `gorm:"type:varchar(256);not null" json:"value"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MasterData) TableName() string {
	return "master_data"
}
