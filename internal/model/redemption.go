package model

import (
	"time"
)

const (
	RedemptionStatusPending  = "Pending"
	RedemptionStatusApproved = "Approved"
	RedemptionStatusRejected = "Rejected"
)

// 兑换状态机：引擎只负责写入 Pending，后续流转归审批流程
var validRedemptionTransitions = map[string][]string{
	RedemptionStatusPending: {RedemptionStatusApproved, RedemptionStatusRejected},
}

func CanTransitionRedemption(currentStatus, targetStatus string) bool {
	allowed, exists := validRedemptionTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Redemption 兑换申请表
// 引擎侧创建即 Pending，同事务内已扣减中心账户余额
type Redemption struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"index;not null" json:"user_id"`
	RedemptionID   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"redemption_id"` // 对外展示的兑换单号
	Channel        string    `gorm:"type:varchar(32);not null" json:"channel"`                   // 兑换渠道（UPI/银行转账/礼品卡等）
	PointsRedeemed int64     `gorm:"not null" json:"points_redeemed"`
	Amount         *int64    `json:"amount"`                                                     // 对应货币金额，可空
	Status         string    `gorm:"type:varchar(20);index;not null;default:Pending" json:"status"`
	Metadata       string    `gorm:"type:text" json:"metadata"`
	ApprovedBy     *int64    `json:"approved_by"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Redemption) TableName() string {
	return "redemptions"
}
