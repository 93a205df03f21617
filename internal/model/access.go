package model

import (
	"time"
)

const AccessTypeSpecific = "specific"

// ParticipantSkuAccess 参与者SKU准入表
// 语义是"选择性限制"而非"选择性授权"：
// 某用户一条记录都没有时默认放行；存在记录时必须命中有效记录才放行
type ParticipantSkuAccess struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64      `gorm:"index;not null" json:"user_id"`
	Sku        string     `gorm:"type:varchar(64);not null" json:"sku"`
	AccessType string     `gorm:"type:varchar(20);not null;default:specific" json:"access_type"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (ParticipantSkuAccess) TableName() string {
	return "participant_sku_access"
}
