package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"loyaltyengine/internal/config"
	"loyaltyengine/internal/model"
	"loyaltyengine/internal/repository"
	"loyaltyengine/pkg/idgen"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================================
// 税款代扣引擎（TDS）
// ============================================================================
//
// 财年按 4月1日 - 次年3月31日 划分。每笔入账按类别比例预扣一部分积分，
// 先累进当财年的 kitty；kitty 触达结算阈值时整体转入 deducted 并标记结算。
//
// 【关键点】代扣内部出错只记日志不上抛：税务记账的缺陷绝不能挡住
// 参与者应得的积分入账，这是有意的取舍，不是疏漏。
//
// ============================================================================

type TdsService struct {
	db         *gorm.DB
	tdsRepo    *repository.TdsRepository
	masterRepo *repository.MasterDataRepository
	outboxRepo *repository.OutboxRepository
	threshold  int64
	topics     config.KafkaTopicConfig
}

func NewTdsService(db *gorm.DB, cfg *config.Config) *TdsService {
	return &TdsService{
		db:         db,
		tdsRepo:    repository.NewTdsRepository(db),
		masterRepo: repository.NewMasterDataRepository(db),
		outboxRepo: repository.NewOutboxRepository(db),
		threshold:  cfg.Business.TdsSettlementThreshold,
		topics:     cfg.Kafka.Topic,
	}
}

// FinancialYearOf 计算日期所属财年，如 2024年5月 -> "2024-2025"
func FinancialYearOf(t time.Time) string {
	year := t.Year()
	if t.Month() >= time.April {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}

// CurrentFinancialYear 当前财年
func CurrentFinancialYear() string {
	return FinancialYearOf(time.Now())
}

// withholdingAmount 计算本笔代扣额：floor(gross * pct / 100)
func withholdingAmount(gross int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(gross).
		Mul(pct).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}

// accrue 把本次代扣额计入记录；触达阈值时就地结算。返回是否发生结算。
// 结算把整个新 kitty（含本次）转入 deducted 并清零，保证任何事务
// 提交后都不会留下 kitty >= 阈值的记录
func accrue(record *model.TdsRecord, amount, threshold int64, now time.Time) bool {
	settled := false
	newKitty := record.Kitty + amount

	if newKitty >= threshold {
		record.Deducted += newKitty
		record.Kitty = 0
		record.Status = model.TdsStatusSettled
		settledAt := now
		record.SettledAt = &settledAt
		settled = true
	} else {
		record.Kitty = newKitty
	}

	record.TransactionCount++
	record.LastDeductedAmount = amount
	deductionAt := now
	record.LastDeductionAt = &deductionAt
	return settled
}

// percentageFor 解析类别的代扣比例
// 优先 TDS_PERCENTAGE_<类别大写>，缺省回退通用键 TDS_PERCENTAGE，都没有按 0 处理
func (s *TdsService) percentageFor(ctx context.Context, tx *gorm.DB, category model.Category) (decimal.Decimal, error) {
	key := model.TdsPercentageKeyPrefix + strings.ToUpper(string(category))
	value, found, err := s.masterRepo.GetActiveValue(ctx, tx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if !found {
		value, found, err = s.masterRepo.GetActiveValue(ctx, tx, model.TdsPercentageFallback)
		if err != nil {
			return decimal.Zero, err
		}
		if !found {
			return decimal.Zero, nil
		}
	}

	pct, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("代扣比例配置非法: %s=%s", key, value)
	}
	return pct, nil
}

// Apply 对一笔毛积分执行代扣，返回净积分和代扣额
// 所有落库都发生在调用方事务内；内部任何错误都被吞掉，放行全额积分
func (s *TdsService) Apply(ctx context.Context, tx *gorm.DB, userID int64, category model.Category, gross int64) (int64, int64) {
	net, withheld, err := s.apply(ctx, tx, userID, category, gross)
	if err != nil {
		log.Printf("[TdsService] 代扣失败，放行全额积分: userID=%d, gross=%d, err=%v", userID, gross, err)
		return gross, 0
	}
	return net, withheld
}

func (s *TdsService) apply(ctx context.Context, tx *gorm.DB, userID int64, category model.Category, gross int64) (int64, int64, error) {
	pct, err := s.percentageFor(ctx, tx, category)
	if err != nil {
		return 0, 0, err
	}
	if pct.IsZero() {
		return gross, 0, nil
	}

	amount := withholdingAmount(gross, pct)
	if amount == 0 {
		// 小到扣不动，不产生零值台账噪音
		return gross, 0, nil
	}

	now := time.Now()
	fy := FinancialYearOf(now)

	record, err := s.tdsRepo.GetOrCreate(ctx, tx, userID, fy)
	if err != nil {
		return 0, 0, err
	}

	settled := accrue(record, amount, s.threshold, now)

	if err := s.tdsRepo.Save(ctx, tx, record); err != nil {
		return 0, 0, err
	}

	if settled {
		s.emitSettlementEvent(ctx, tx, record)
	}

	return gross - amount, amount, nil
}

// emitSettlementEvent 结算事件随同事务落入发件箱，失败不影响主流程
func (s *TdsService) emitSettlementEvent(ctx context.Context, tx *gorm.DB, record *model.TdsRecord) {
	payload, _ := json.Marshal(map[string]interface{}{
		"event":          model.EventTdsSettled,
		"user_id":        record.UserID,
		"financial_year": record.FinancialYear,
		"deducted":       record.Deducted,
		"settled_at":     record.SettledAt.Format(time.RFC3339),
	})
	msg := &model.OutboxMessage{
		MessageKey: idgen.GenerateEventKey(),
		Topic:      s.topics.TdsSettled,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		log.Printf("[TdsService] 结算事件写入发件箱失败: userID=%d, err=%v", record.UserID, err)
	}
}

// FyResetResult 财年重置批处理结果
type FyResetResult struct {
	Processed int `json:"processed"`
	Settled   int `json:"settled"`
	Reverted  int `json:"reverted"`
	Errors    int `json:"errors"`
}

// ResetFinancialYear 财年切换批处理（每年4月1日执行）
// 关闭上一财年所有 active 记录：kitty 达阈值的结清转入 deducted，
// 未达的整体回退记入 reversed_amount；并为新财年开出零值 active 记录。
// 每个参与者单独一个事务，个别失败不拖垮整批
func (s *TdsService) ResetFinancialYear(ctx context.Context, previousFy, newFy string) (*FyResetResult, error) {
	userIDs, err := s.tdsRepo.ListActiveUserIDs(ctx, previousFy)
	if err != nil {
		return nil, fmt.Errorf("查询待重置记录失败: %w", err)
	}

	result := &FyResetResult{}
	for _, userID := range userIDs {
		settled, err := s.resetOne(ctx, userID, previousFy, newFy)
		if err != nil {
			log.Printf("[TdsService] 财年重置失败: userID=%d, fy=%s, err=%v", userID, previousFy, err)
			result.Errors++
			continue
		}
		result.Processed++
		if settled {
			result.Settled++
		} else {
			result.Reverted++
		}
	}

	log.Printf("[TdsService] 财年重置完成: %s -> %s, processed=%d, settled=%d, reverted=%d, errors=%d",
		previousFy, newFy, result.Processed, result.Settled, result.Reverted, result.Errors)
	return result, nil
}

func (s *TdsService) resetOne(ctx context.Context, userID int64, previousFy, newFy string) (bool, error) {
	settled := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.tdsRepo.GetByUserAndFy(ctx, tx, userID, previousFy)
		if err != nil {
			return err
		}
		if record == nil || record.Status != model.TdsStatusActive {
			return nil
		}

		now := time.Now()
		kitty := record.Kitty
		reverted := int64(0)

		if kitty >= s.threshold {
			record.Status = model.TdsStatusSettled
			record.Deducted += kitty
			settled = true
		} else {
			record.Status = model.TdsStatusReverted
			record.ReversedAmount = kitty
			reverted = kitty
		}
		record.Kitty = 0
		record.SettledAt = &now

		if err := s.tdsRepo.Save(ctx, tx, record); err != nil {
			return err
		}

		// 新财年开零值记录，带上回退额备注
		metadata, _ := json.Marshal(map[string]interface{}{
			"reversed_from_previous_fy": reverted,
		})
		newRecord, err := s.tdsRepo.GetByUserAndFy(ctx, tx, userID, newFy)
		if err != nil {
			return err
		}
		if newRecord == nil {
			return s.tdsRepo.Create(ctx, tx, &model.TdsRecord{
				UserID:        userID,
				FinancialYear: newFy,
				Status:        model.TdsStatusActive,
				Metadata:      string(metadata),
			})
		}
		return nil
	})
	return settled, err
}
