package service

import (
	"context"
	"fmt"
	"log"

	"loyaltyengine/internal/model"
	"loyaltyengine/internal/repository"
)

// NewCounterStaffBonusRule 零售商扫码联动柜台店员加分
//
// 零售商的主扫成功后，若其档案挂了柜台店员，按同样的净积分给店员
// 入一笔 "QR Scan - Indirect"。软规则：店员侧失败不影响零售商入账
func NewCounterStaffBonusRule(credit *CreditService, participants *repository.ParticipantRepository) *Rule {
	return &Rule{
		Name:       "counter_staff_bonus",
		Categories: []model.Category{model.CategoryRetailer},
		Run: func(ctx context.Context, rc *RuleContext) error {
			if !rc.PrimaryScan || rc.NetPoints <= 0 {
				return nil
			}

			tables, err := model.TablesFor(model.CategoryRetailer)
			if err != nil {
				return err
			}
			profile, err := participants.GetProfile(ctx, rc.Tx, tables, rc.UserID)
			if err != nil {
				return fmt.Errorf("查询零售商档案失败: %w", err)
			}
			if profile.CounterStaffID == nil {
				return nil
			}

			staffID := *profile.CounterStaffID
			opts := CreditOptions{
				EarningTypeName: model.EarningTypeQrScanIndirect,
				Remarks:         fmt.Sprintf("零售商 %d 扫码联动加分", rc.UserID),
			}
			if rc.QR != nil {
				opts.Sku = rc.QR.Sku
				opts.BatchNumber = rc.QR.BatchNumber
				opts.QrCode = rc.QR.Code
			}

			_, err = credit.Credit(ctx, rc.Tx, staffID, model.CategoryCounterSales, rc.NetPoints, opts)
			if err != nil {
				return fmt.Errorf("柜台店员加分失败: staffID=%d: %w", staffID, err)
			}

			log.Printf("[Rule] 柜台店员联动加分: retailer=%d, staff=%d, points=%d, correlationID=%s",
				rc.UserID, staffID, rc.NetPoints, rc.CorrelationID)
			return nil
		},
	}
}
