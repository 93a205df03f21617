package job

import (
	"context"
	"log"
	"time"

	"loyaltyengine/internal/service"
)

// FyResetJob 财年切换检测任务
// 每小时对一次表：当前财年与上次看到的不同（跨过 4月1日）时，
// 对上一财年触发一次重置批处理。重置本身幂等：active 记录
// 处理完就换了状态，重复触发只会扫到空集
type FyResetJob struct {
	tdsService *service.TdsService
	lastSeenFy string
	interval   time.Duration
	stopChan   chan struct{}
}

func NewFyResetJob(tdsService *service.TdsService) *FyResetJob {
	return &FyResetJob{
		tdsService: tdsService,
		lastSeenFy: service.CurrentFinancialYear(),
		interval:   time.Hour,
		stopChan:   make(chan struct{}),
	}
}

func (j *FyResetJob) Start() {
	go j.run()
	log.Printf("[FyResetJob] 财年检测任务已启动, 当前财年=%s", j.lastSeenFy)
}

func (j *FyResetJob) Stop() {
	close(j.stopChan)
	log.Println("[FyResetJob] 财年检测任务已停止")
}

func (j *FyResetJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.checkOnce()
		}
	}
}

func (j *FyResetJob) checkOnce() {
	currentFy := service.CurrentFinancialYear()
	if currentFy == j.lastSeenFy {
		return
	}

	log.Printf("[FyResetJob] 检测到财年切换: %s -> %s", j.lastSeenFy, currentFy)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := j.tdsService.ResetFinancialYear(ctx, j.lastSeenFy, currentFy); err != nil {
		// 不更新 lastSeenFy，下一轮重试
		log.Printf("[FyResetJob] 财年重置执行失败: %v", err)
		return
	}
	j.lastSeenFy = currentFy
}
