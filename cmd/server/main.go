package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyaltyengine/internal/config"
	"loyaltyengine/internal/handler"
	"loyaltyengine/internal/infrastructure/cache"
	"loyaltyengine/internal/infrastructure/database"
	"loyaltyengine/internal/infrastructure/mq"
	"loyaltyengine/internal/job"
	"loyaltyengine/internal/repository"
	"loyaltyengine/internal/service"
	"loyaltyengine/pkg/idgen"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	workerID := flag.Int64("worker-id", 1, "雪花算法机器ID")
	flag.Parse()

	cfg := config.LoadConfig(*configPath)
	idgen.Init(*workerID)

	db := database.InitMySQL(&cfg.MySQL)
	redisClient := cache.InitRedis(&cfg.Redis)
	producer := mq.NewProducer(&cfg.Kafka)

	// service 装配
	tdsService := service.NewTdsService(db, cfg)
	creditService := service.NewCreditService(db, cfg, tdsService)

	pipeline := service.NewConstraintPipeline()
	if cfg.Business.CounterStaffBonus {
		pipeline.Register(service.NewCounterStaffBonusRule(creditService, repository.NewParticipantRepository(db)))
	}

	scanService := service.NewScanService(db, creditService, pipeline)
	redemptionService := service.NewRedemptionService(db, redisClient, cfg)

	// 后台任务
	outboxSender := job.NewOutboxSender(db, producer, cfg.Business.MaxRetryCount)
	outboxSender.Start()
	fyResetJob := job.NewFyResetJob(tdsService)
	fyResetJob.Start()

	// HTTP 服务
	h := handler.NewHandler(scanService, creditService, redemptionService, tdsService)
	metrics := handler.NewMetrics()
	router := handler.SetupRouter(h, metrics)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("服务启动，监听端口 %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 优雅关停：先停收请求，再停后台任务，最后断外部连接
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到退出信号，开始优雅关停...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP 服务关停异常: %v", err)
	}

	outboxSender.Stop()
	fyResetJob.Stop()
	producer.Close()

	if err := redisClient.Close(); err != nil {
		log.Printf("关闭 Redis 连接异常: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("服务已退出")
}
