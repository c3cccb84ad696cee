package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort       string `mapstructure:"SERVER_PORT"`
	DbName           string `mapstructure:"POSTGRES_DB"`
	DbHost           string `mapstructure:"POSTGRES_HOST"`
	DbPort           string `mapstructure:"POSTGRES_PORT"`
	DbUser           string `mapstructure:"POSTGRES_USER"`
	DbPas            string `mapstructure:"POSTGRES_PASSWORD"`
	DbSslMode        string `mapstructure:"POSTGRES_SSLMODE"`
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	KafkaSagaTopic   string `mapstructure:"KAFKA_SAGA_TOPIC"`
	WebhookSecret    string `mapstructure:"WEBHOOK_SECRET"`
	PaymentBaseURL   string `mapstructure:"PAYMENT_BASE_URL"`
	PaymentAPIKey    string `mapstructure:"PAYMENT_API_KEY"`
	InventoryBaseURL string `mapstructure:"INVENTORY_BASE_URL"`
	ShipmentBaseURL  string `mapstructure:"SHIPMENT_BASE_URL"`
	CartBaseURL      string `mapstructure:"CART_BASE_URL"`
	FrontendURL      string `mapstructure:"FRONTEND_URL"`
	CompanyName      string `mapstructure:"COMPANY_NAME"`
	OutboundTimeout  int    `mapstructure:"OUTBOUND_TIMEOUT_SECONDS"`
	FxGtqToUsd       string `mapstructure:"FX_GTQ_TO_USD"`
}

// Load 啟動時讀一次，之後整包往下傳，saga 內不再碰環境變數
func Load(path string) (*Config, error) {
	cf := &Config{}
	viper.SetConfigFile(fmt.Sprintf("%s/.env", path))
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// 沒有 .env 檔時允許只吃環境變數
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !strings.Contains(err.Error(), "no such file") {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cf); err != nil {
		return nil, err
	}

	if cf.OutboundTimeout <= 0 {
		cf.OutboundTimeout = 5
	}
	if cf.DbSslMode == "" {
		cf.DbSslMode = "disable"
	}
	return cf, nil
}

// ExchangeRate 解析 FX_GTQ_TO_USD (1 GTQ = X USD)，沒設或非正數就報錯
func (c *Config) ExchangeRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.FxGtqToUsd)
	if err != nil {
		return decimal.Zero, fmt.Errorf("FX_GTQ_TO_USD is not a number: %w", err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("FX_GTQ_TO_USD must be positive, got %s", rate)
	}
	return rate, nil
}

func (c *Config) OutboundTimeoutDuration() time.Duration {
	return time.Duration(c.OutboundTimeout) * time.Second
}

func (c *Config) KafkaBrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
