package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DB         *Postgres   `yaml:"database"`
	RMQ        *RabbitMQ   `yaml:"rabbitmq"`
	Redis      *Redis      `yaml:"redis"`
	Settlement *Settlement `yaml:"settlement"`
	Shop       *Shop       `yaml:"shop"`
}

type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int32  `yaml:"max_conns"`
}

type RabbitMQ struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	VHost    string `yaml:"vhost"`
}

// Redis is optional; an empty Addr disables the settings cache.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Settlement struct {
	CoverUnitPrice          string `yaml:"cover_unit_price"`
	CoverLabel              string `yaml:"cover_label"`
	PartialPaymentLabel     string `yaml:"partial_payment_label"`
	SettingsCacheTTLSeconds int    `yaml:"settings_cache_ttl_seconds"`
}

type Shop struct {
	Name      string `yaml:"name"`
	Address   string `yaml:"address"`
	Phone     string `yaml:"phone"`
	VATNumber string `yaml:"vat_number"`
}

// LoadConfig reads the yaml file at configPath and fills missing sections
// with defaults.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadDotEnv builds the config from the environment, loading .env first when
// it exists.
func LoadDotEnv() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DB: &Postgres{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "admin"),
			Password: getEnv("POSTGRES_PASSWORD", "admin"),
			Database: getEnv("POSTGRES_DBNAME", "restaurant_db"),
			MaxConns: int32(getEnvInt("POSTGRES_MAX_CONNS", 10)),
		},
		RMQ: &RabbitMQ{
			Host:     getEnv("RABBITMQ_HOST", ""),
			Port:     getEnv("RABBITMQ_PORT_APP", "5672"),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", ""),
		},
		Redis: &Redis{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Settlement: &Settlement{
			CoverUnitPrice:          getEnv("COVER_UNIT_PRICE", "0"),
			CoverLabel:              getEnv("COVER_LABEL", ""),
			PartialPaymentLabel:     getEnv("PARTIAL_PAYMENT_LABEL", ""),
			SettingsCacheTTLSeconds: getEnvInt("SETTINGS_CACHE_TTL", 0),
		},
		Shop: &Shop{
			Name:      getEnv("SHOP_NAME", ""),
			Address:   getEnv("SHOP_ADDRESS", ""),
			Phone:     getEnv("SHOP_PHONE", ""),
			VATNumber: getEnv("SHOP_VAT_NUMBER", ""),
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DB == nil {
		c.DB = &Postgres{}
	}
	if c.DB.MaxConns <= 0 {
		c.DB.MaxConns = 10
	}
	if c.RMQ == nil {
		c.RMQ = &RabbitMQ{}
	}
	if c.Redis == nil {
		c.Redis = &Redis{}
	}
	if c.Settlement == nil {
		c.Settlement = &Settlement{}
	}
	if c.Settlement.CoverUnitPrice == "" {
		c.Settlement.CoverUnitPrice = "0"
	}
	if c.Settlement.CoverLabel == "" {
		c.Settlement.CoverLabel = "Coperto"
	}
	if c.Settlement.PartialPaymentLabel == "" {
		c.Settlement.PartialPaymentLabel = "Partial payment"
	}
	if c.Settlement.SettingsCacheTTLSeconds <= 0 {
		c.Settlement.SettingsCacheTTLSeconds = 60
	}
	if c.Shop == nil {
		c.Shop = &Shop{}
	}
}

func (r *RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", r.User, r.Password, r.Host, r.Port, r.VHost)
}

// BrokerEnabled reports whether a RabbitMQ host is configured.
func (c *Config) BrokerEnabled() bool {
	return c.RMQ != nil && c.RMQ.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
