package database

import (
	"fmt"
	"log"
	"time"

	"loyaltyengine/internal/config"
	"loyaltyengine/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitMySQL 初始化 MySQL 连接，由 main 持有返回值并负责关闭
func InitMySQL(cfg *config.MySQLConfig) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("连接 MySQL 失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("获取底层 DB 失败: %v", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(db); err != nil {
		log.Fatalf("自动迁移表结构失败: %v", err)
	}

	log.Println("MySQL 连接成功")
	return db
}

// AutoMigrate 建表迁移
// 交易/日志/台账/档案四类表按参与者类别分表，逐类别迁移同一结构
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Participant{},
		&model.QRCode{},
		&model.PointConfig{},
		&model.ParticipantSkuAccess{},
		&model.EarningType{},
		&model.TdsRecord{},
		&model.Redemption{},
		&model.MasterData{},
		&model.OutboxMessage{},
	)
	if err != nil {
		return err
	}

	for _, tables := range model.AllCategoryTables() {
		if err := db.Table(tables.Transactions).AutoMigrate(&model.EarningTransaction{}); err != nil {
			return err
		}
		if err := db.Table(tables.TransactionLogs).AutoMigrate(&model.EarningAuditLog{}); err != nil {
			return err
		}
		if err := db.Table(tables.Ledger).AutoMigrate(&model.LedgerEntry{}); err != nil {
			return err
		}
		if err := db.Table(tables.Profiles).AutoMigrate(&model.CategoryProfile{}); err != nil {
			return err
		}
	}
	return nil
}
