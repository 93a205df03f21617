package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	EarningResult    string `mapstructure:"earning_result"`
	RedemptionResult string `mapstructure:"redemption_result"`
	TdsSettled       string `mapstructure:"tds_settled"`
}

type BusinessConfig struct {
	// 代扣结算阈值，业务现值 20000，允许外部化调整
	TdsSettlementThreshold int64 `mapstructure:"tds_settlement_threshold"`
	// 柜台店员联动奖励开关
	CounterStaffBonus bool `mapstructure:"counter_staff_bonus"`
	// 发件箱消息最大重试次数
	MaxRetryCount int `mapstructure:"max_retry_count"`
}

// LoadConfig 加载配置文件，关键项带默认值
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("mysql.max_open_conns", 50)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("kafka.topic.earning_result", "earning_result")
	viper.SetDefault("kafka.topic.redemption_result", "redemption_result")
	viper.SetDefault("kafka.topic.tds_settled", "tds_settled")
	viper.SetDefault("business.tds_settlement_threshold", 20000)
	viper.SetDefault("business.counter_staff_bonus", true)
	viper.SetDefault("business.max_retry_count", 5)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	return config
}
