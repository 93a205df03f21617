package job

import (
	"context"
	"log"
	"time"

	"loyaltyengine/internal/infrastructure/mq"
	"loyaltyengine/internal/repository"

	"gorm.io/gorm"
)

// OutboxSender 发件箱投递任务
// 轮询 PENDING 消息逐条投递 Kafka；投递失败累加重试计数，
// 超过上限置为终态 FAILED 等人工介入。至少一次投递，消费方按
// message_key 去重
type OutboxSender struct {
	outboxRepo    *repository.OutboxRepository
	producer      *mq.Producer
	interval      time.Duration
	batchSize     int
	maxRetryCount int
	stopChan      chan struct{}
}

func NewOutboxSender(db *gorm.DB, producer *mq.Producer, maxRetryCount int) *OutboxSender {
	return &OutboxSender{
		outboxRepo:    repository.NewOutboxRepository(db),
		producer:      producer,
		interval:      3 * time.Second,
		batchSize:     100,
		maxRetryCount: maxRetryCount,
		stopChan:      make(chan struct{}),
	}
}

func (s *OutboxSender) Start() {
	go s.run()
	log.Println("[OutboxSender] 发件箱投递任务已启动")
}

func (s *OutboxSender) Stop() {
	close(s.stopChan)
	log.Println("[OutboxSender] 发件箱投递任务已停止")
}

func (s *OutboxSender) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.processBatch()
		}
	}
}

func (s *OutboxSender) processBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		log.Printf("[OutboxSender] 查询待发消息失败: %v", err)
		return
	}

	for _, msg := range messages {
		if err := s.producer.Send(msg.Topic, msg.MessageKey, msg.Payload); err != nil {
			final := msg.RetryCount+1 >= s.maxRetryCount
			log.Printf("[OutboxSender] 投递失败: id=%d, topic=%s, retry=%d, final=%v, err=%v",
				msg.ID, msg.Topic, msg.RetryCount+1, final, err)
			if err := s.outboxRepo.MarkFailure(ctx, msg.ID, final); err != nil {
				log.Printf("[OutboxSender] 更新失败计数失败: id=%d, err=%v", msg.ID, err)
			}
			continue
		}

		if err := s.outboxRepo.MarkSent(ctx, msg.ID); err != nil {
			// 消息已出去但标记失败，下一轮会重发，靠消费方幂等兜住
			log.Printf("[OutboxSender] 标记已发送失败: id=%d, err=%v", msg.ID, err)
		}
	}
}
