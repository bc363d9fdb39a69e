package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Plaid     PlaidConfig     `mapstructure:"plaid"`
	Funding   FundingConfig   `mapstructure:"funding"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	// Frontend origin requests fall through to when no API route matches.
	// Empty disables proxying; unmatched paths 404.
	UpstreamURL string `mapstructure:"upstream_url"`
	// Freezes mutating requests (maintenance / incident response).
	ReadOnly bool `mapstructure:"read_only"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	// Supabase-issued session JWTs. When JWKSURL is empty, claims are
	// validated without signature verification (dev mode only).
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
	JWKSURL  string `mapstructure:"jwks_url"`

	// Shared secret for system routes (webhooks, internal jobs).
	SystemKey string `mapstructure:"system_key"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr             string `mapstructure:"addr"`
	Password         string `mapstructure:"password"`
	DB               int    `mapstructure:"db"`
	StatusTTLSeconds int    `mapstructure:"status_ttl_seconds"`
}

type BrokerConfig struct {
	// Alpaca Broker API credentials
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	EventsURL string `mapstructure:"events_url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

type PlaidConfig struct {
	ClientID string `mapstructure:"client_id"`
	Secret   string `mapstructure:"secret"`
	Env      string `mapstructure:"env"`
}

type FundingConfig struct {
	// Minimum settled incoming transfer total for an account to count as funded.
	MinFundedAmount float64 `mapstructure:"min_funded_amount"`
	MinTransfer     float64 `mapstructure:"min_transfer"`
	MaxTransfer     float64 `mapstructure:"max_transfer"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. CLERA_BROKER_API_KEY
	viper.SetEnvPrefix("clera")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("redis.status_ttl_seconds", 30)
	viper.SetDefault("broker.base_url", "https://broker-api.sandbox.alpaca.markets")
	viper.SetDefault("broker.events_url", "wss://broker-api.sandbox.alpaca.markets/v1/events/transfers")
	viper.SetDefault("broker.timeout_ms", 5000)
	viper.SetDefault("plaid.env", "sandbox")
	viper.SetDefault("funding.min_funded_amount", 1.0)
	viper.SetDefault("funding.min_transfer", 1.0)
	viper.SetDefault("funding.max_transfer", 50000.0)
	viper.SetDefault("rate_limit.qps", 10)
	viper.SetDefault("rate_limit.burst", 20)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
