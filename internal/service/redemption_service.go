package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"loyaltyengine/internal/config"
	"loyaltyengine/internal/infrastructure/lock"
	"loyaltyengine/internal/model"
	"loyaltyengine/internal/repository"
	"loyaltyengine/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var (
	ErrInvalidRedeemAmount = errors.New("兑换积分数必须为正")
	ErrRedeemBusy          = errors.New("兑换请求处理中，请稍后重试")
)

// RedemptionRequest 一次兑换申请
// Amount 是渠道侧的货币金额（如 UPI 到账金额），可空，引擎只存不算
type RedemptionRequest struct {
	UserID    int64
	Points    int64
	Channel   string
	Amount    *int64
	RequestID string
	Metadata  map[string]interface{}
}

// RedemptionResult 兑换申请受理结果
type RedemptionResult struct {
	RedemptionID   string `json:"redemption_id"`
	PointsRedeemed int64  `json:"points_redeemed"`
	Status         string `json:"status"`
	ClosingBalance int64  `json:"closing_balance"`
}

// RedemptionService 兑换申请受理
//
// 兑换只扣中心账户余额，不动类别档案：档案的 points_balance
// 是"挣了多少"的维度，可花余额只有一份，在中心账户上。
// 条件扣减语句本身就防超扣，Redis 锁只是同一用户重复提交的
// 前置挡板，Redis 不可用时直接退化为纯数据库路径
type RedemptionService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	participantRepo *repository.ParticipantRepository
	redemptionRepo  *repository.RedemptionRepository
	outboxRepo      *repository.OutboxRepository
	topics          config.KafkaTopicConfig
}

func NewRedemptionService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *RedemptionService {
	return &RedemptionService{
		db:              db,
		redisClient:     redisClient,
		participantRepo: repository.NewParticipantRepository(db),
		redemptionRepo:  repository.NewRedemptionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
		topics:          cfg.Kafka.Topic,
	}
}

// Request 受理一次兑换申请，成功返回 Pending 状态的兑换单
func (s *RedemptionService) Request(ctx context.Context, req *RedemptionRequest) (*RedemptionResult, error) {
	if req.Points <= 0 {
		return nil, ErrInvalidRedeemAmount
	}

	if s.redisClient != nil {
		redeemLock := lock.NewRedeemLock(s.redisClient, req.UserID, req.RequestID)
		acquired, err := redeemLock.TryLock(ctx)
		if err != nil {
			log.Printf("[RedemptionService] 获取兑换锁异常，降级为纯数据库路径: userID=%d, err=%v", req.UserID, err)
		} else if !acquired {
			return nil, ErrRedeemBusy
		} else {
			defer func() {
				if err := redeemLock.Unlock(context.Background()); err != nil {
					log.Printf("[RedemptionService] 释放兑换锁失败: userID=%d, err=%v", req.UserID, err)
				}
			}()
		}
	}

	var result *RedemptionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		participant, err := s.participantRepo.GetByUserID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		// 预检只为快速失败，真正的防超扣在条件扣减上
		if participant.PointsBalance < req.Points {
			return repository.ErrBalanceNotEnough
		}

		if err := s.participantRepo.Debit(ctx, tx, req.UserID, req.Points); err != nil {
			return err
		}

		metadata := ""
		if req.Metadata != nil {
			raw, _ := json.Marshal(req.Metadata)
			metadata = string(raw)
		}

		redemption := &model.Redemption{
			RedemptionID:   idgen.GenerateRedemptionID(),
			UserID:         req.UserID,
			Channel:        req.Channel,
			PointsRedeemed: req.Points,
			Amount:         req.Amount,
			Status:         model.RedemptionStatusPending,
			Metadata:       metadata,
		}
		if err := s.redemptionRepo.Create(ctx, tx, redemption); err != nil {
			return err
		}

		s.emitRequestedEvent(ctx, tx, redemption)

		// 扣减后在同一事务内回读：并发扣减下预检读数可能已经过期
		debited, err := s.participantRepo.GetByUserID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		result = &RedemptionResult{
			RedemptionID:   redemption.RedemptionID,
			PointsRedeemed: req.Points,
			Status:         redemption.Status,
			ClosingBalance: debited.PointsBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[RedemptionService] 兑换申请受理: userID=%d, redemptionID=%s, points=%d",
		req.UserID, result.RedemptionID, req.Points)
	return result, nil
}

// GetBalance 查询中心账户可用余额
func (s *RedemptionService) GetBalance(ctx context.Context, userID int64) (*model.Participant, error) {
	return s.participantRepo.GetByUserID(ctx, nil, userID)
}

func (s *RedemptionService) emitRequestedEvent(ctx context.Context, tx *gorm.DB, redemption *model.Redemption) {
	payload, _ := json.Marshal(map[string]interface{}{
		"event":           model.EventRedemptionRequested,
		"redemption_id":   redemption.RedemptionID,
		"user_id":         redemption.UserID,
		"points_redeemed": redemption.PointsRedeemed,
		"channel":         redemption.Channel,
		"requested_at":    time.Now().Format(time.RFC3339),
	})
	msg := &model.OutboxMessage{
		MessageKey: idgen.GenerateEventKey(),
		Topic:      s.topics.RedemptionResult,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		log.Printf("[RedemptionService] 兑换事件写入发件箱失败: redemptionID=%s, err=%v", redemption.RedemptionID, err)
	}
}
