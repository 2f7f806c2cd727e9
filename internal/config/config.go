// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Elastic   ElasticConfig   `mapstructure:"elasticsearch"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	ChatBot   ChatBotConfig   `mapstructure:"chatbot"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Credits   CreditsConfig   `mapstructure:"credits"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
// IngestTopic 承载文档摄取任务；EventsTopic 承载积分变动等尽力而为的事件。
type KafkaConfig struct {
	Brokers     string `mapstructure:"brokers"`
	IngestTopic string `mapstructure:"ingest_topic"`
	EventsTopic string `mapstructure:"events_topic"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// ElasticConfig 存储 Elasticsearch 相关的配置。
type ElasticConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// StripeConfig 存储支付相关的配置。
// PricePlans 将套餐名（starter/pro/power）映射为 Stripe 价格 ID。
type StripeConfig struct {
	SecretKey  string            `mapstructure:"secret_key"`
	SuccessURL string            `mapstructure:"success_url"`
	CancelURL  string            `mapstructure:"cancel_url"`
	PricePlans map[string]string `mapstructure:"price_plans"`
}

// ChatBotConfig 存储托管聊天后端的配置。
type ChatBotConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// ExtractorConfig 存储文本抽取服务（Tika 兼容）的配置。
type ExtractorConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// OCRConfig 存储 OCR 服务的配置，用于扫描件兜底。
type OCRConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// NotifyConfig 存储积分事件回调通知的配置。
type NotifyConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CreditsConfig 存储积分规则相关的配置。
type CreditsConfig struct {
	// ClickPoints 是合作方链接点击的固定奖励分值。
	ClickPoints int `mapstructure:"click_points"`
	// ProBonus 是升级 Pro 后一次性发放的积分。
	ProBonus int `mapstructure:"pro_bonus"`
	// TemplateCost 是使用一次 AI 模板的默认扣减分值。
	TemplateCost int `mapstructure:"template_cost"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
