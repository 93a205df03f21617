package model

import (
	"time"
)

// Participant 参与者中心账户表
// 汇总各类别档案的积分余额，是兑换扣减的依据
type Participant struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"uniqueIndex;not null" json:"user_id"`          // 用户ID，上游开户时写入
	Name          string    `gorm:"type:varchar(128)" json:"name"`                // 姓名
	Phone         string    `gorm:"type:varchar(20);index" json:"phone"`          // 手机号
	PointsBalance int64     `gorm:"not null;default:0" json:"points_balance"`     // 可用积分余额
	TotalEarnings int64     `gorm:"not null;default:0" json:"total_earnings"`     // 累计获得积分
	TotalRedeemed int64     `gorm:"not null;default:0" json:"total_redeemed"`     // 累计兑换积分
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Participant) TableName() string {
	return "participants"
}

// CategoryProfile 类别档案行，按类别落在各自的物理表
// （retailers / electricians / counter_sales），读写时必须配合 Table() 指定表名。
// 档案余额和中心账户余额必须在同一事务内同增同减
type CategoryProfile struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Name           string    `gorm:"type:varchar(128)" json:"name"`
	Phone          string    `gorm:"type:varchar(20)" json:"phone"`
	PointsBalance  int64     `gorm:"not null;default:0" json:"points_balance"`
	TotalEarnings  int64     `gorm:"not null;default:0" json:"total_earnings"`
	TdsConsent     bool      `gorm:"not null;default:false" json:"tds_consent"`    // 是否签署代扣授权
	CounterStaffID *int64    `gorm:"column:counter_staff_id" json:"counter_staff_id"` // 关联柜台店员（仅零售商档案使用）
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
