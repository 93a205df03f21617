package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"loyaltyengine/internal/config"
	"loyaltyengine/internal/model"
	"loyaltyengine/internal/repository"
	"loyaltyengine/pkg/idgen"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidPoints = errors.New("积分数必须为正")

// CreditOptions 入账的上下文信息，全部透传进流水和台账
type CreditOptions struct {
	Sku             string
	BatchNumber     string
	QrCode          string
	Latitude        decimal.Decimal
	Longitude       decimal.Decimal
	Metadata        string
	Remarks         string
	EarningTypeName string
	SchemeID        *int64
}

// CreditResult 单笔入账结果
type CreditResult struct {
	NetPoints      int64 `json:"net_points"`
	WithheldAmount int64 `json:"withheld_amount"`
	OpeningBalance int64 `json:"opening_balance"`
	ClosingBalance int64 `json:"closing_balance"`
}

// CreditService 积分入账服务
//
// 一笔入账在同一事务内完成五件事：代扣、交易流水、审计日志、
// 余额加法更新、台账记账（期初/期末对账）。任何一步失败整体回滚。
type CreditService struct {
	db              *gorm.DB
	tdsService      *TdsService
	earningRepo     *repository.EarningRepository
	participantRepo *repository.ParticipantRepository
	ledgerRepo      *repository.LedgerRepository
	outboxRepo      *repository.OutboxRepository
	topics          config.KafkaTopicConfig
}

func NewCreditService(db *gorm.DB, cfg *config.Config, tdsService *TdsService) *CreditService {
	return &CreditService{
		db:              db,
		tdsService:      tdsService,
		earningRepo:     repository.NewEarningRepository(db),
		participantRepo: repository.NewParticipantRepository(db),
		ledgerRepo:      repository.NewLedgerRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
		topics:          cfg.Kafka.Topic,
	}
}

// CreditPoints 独立入账入口（开启自己的事务）
func (s *CreditService) CreditPoints(ctx context.Context, userID int64, category model.Category, gross int64, opts CreditOptions) (*CreditResult, error) {
	var result *CreditResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.Credit(ctx, tx, userID, category, gross, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Credit 在调用方事务内执行一笔完整入账
//
// 写入顺序是固定的：先流水后余额再台账。台账行的期初余额由
// 期末余额倒推（closing - net），与加法更新天然一致，不依赖
// 入账前的快照读
func (s *CreditService) Credit(ctx context.Context, tx *gorm.DB, userID int64, category model.Category, gross int64, opts CreditOptions) (*CreditResult, error) {
	if gross <= 0 {
		return nil, ErrInvalidPoints
	}

	tables, err := model.TablesFor(category)
	if err != nil {
		return nil, err
	}

	typeName := opts.EarningTypeName
	if typeName == "" {
		typeName = model.EarningTypeQrScan
	}
	earningType, err := s.earningRepo.GetEarningTypeByName(ctx, tx, typeName)
	if err != nil {
		return nil, err
	}

	// 代扣：失败内部消化，净额永远可用
	net, withheld := s.tdsService.Apply(ctx, tx, userID, category, gross)

	txn := &model.EarningTransaction{
		UserID:        userID,
		EarningTypeID: earningType.ID,
		Points:        net,
		Category:      string(category),
		Sku:           opts.Sku,
		BatchNumber:   opts.BatchNumber,
		QrCode:        opts.QrCode,
		Remarks:       opts.Remarks,
		Latitude:      opts.Latitude,
		Longitude:     opts.Longitude,
		Metadata:      opts.Metadata,
		SchemeID:      opts.SchemeID,
	}
	if err := s.earningRepo.CreateTransaction(ctx, tx, tables, txn); err != nil {
		return nil, err
	}

	// 审计日志记毛积分，代扣前的原始值只在这里留痕
	auditRow := &model.EarningAuditLog{
		UserID:        userID,
		EarningTypeID: earningType.ID,
		Points:        gross,
		Category:      string(category),
		Sku:           opts.Sku,
		BatchNumber:   opts.BatchNumber,
		QrCode:        opts.QrCode,
		Status:        model.AuditStatusSuccess,
		Latitude:      opts.Latitude,
		Longitude:     opts.Longitude,
		Metadata:      opts.Metadata,
	}
	if err := s.earningRepo.CreateAuditLog(ctx, tx, tables, auditRow); err != nil {
		return nil, err
	}

	if err := s.participantRepo.CreditBalances(ctx, tx, tables, userID, net); err != nil {
		return nil, err
	}

	closing, err := s.participantRepo.ProfileBalance(ctx, tx, tables, userID)
	if err != nil {
		return nil, err
	}
	opening := closing - net

	entry := &model.LedgerEntry{
		UserID:         userID,
		EarningTypeID:  earningType.ID,
		Amount:         net,
		Type:           model.LedgerTypeCredit,
		Remarks:        opts.Remarks,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}
	if err := s.ledgerRepo.Create(ctx, tx, tables, entry); err != nil {
		return nil, err
	}

	s.emitCreditedEvent(ctx, tx, userID, category, net, withheld, opts)

	log.Printf("[CreditService] 入账成功: userID=%d, category=%s, gross=%d, net=%d, withheld=%d, closing=%d",
		userID, category, gross, net, withheld, closing)

	return &CreditResult{
		NetPoints:      net,
		WithheldAmount: withheld,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}, nil
}

func (s *CreditService) emitCreditedEvent(ctx context.Context, tx *gorm.DB, userID int64, category model.Category, net, withheld int64, opts CreditOptions) {
	payload, _ := json.Marshal(map[string]interface{}{
		"event":        model.EventEarningCredited,
		"user_id":      userID,
		"category":     category,
		"net_points":   net,
		"withheld":     withheld,
		"sku":          opts.Sku,
		"qr_code":      opts.QrCode,
		"earning_type": opts.EarningTypeName,
	})
	msg := &model.OutboxMessage{
		MessageKey: idgen.GenerateEventKey(),
		Topic:      s.topics.EarningResult,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		log.Printf("[CreditService] 入账事件写入发件箱失败: userID=%d, err=%v", userID, err)
	}
}
