package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	MetricsPort string `mapstructure:"METRICS_PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	MaxRetries            int `mapstructure:"MAX_RETRIES"`
	RetryBaseDelaySeconds int `mapstructure:"RETRY_BASE_DELAY_SECONDS"`
	DeliveryTimeoutSecs   int `mapstructure:"DELIVERY_TIMEOUT_SECONDS"`

	WorkerParallelism int `mapstructure:"WORKER_PARALLELISM"`
	WorkerPollMillis  int `mapstructure:"WORKER_POLL_INTERVAL_MS"`
	WorkerBurst       int `mapstructure:"WORKER_BURST"`
	WorkerIdleMillis  int `mapstructure:"WORKER_IDLE_DELAY_MS"`

	SeedFile string `mapstructure:"SEED_FILE"`
}

// GetConfig loads configuration from an optional .env file and environment
// variables, with environment taking precedence.
func GetConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// An explicit default makes the key visible to Unmarshal even when the
	// value arrives from the environment alone
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("METRICS_PORT", "9090")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("RETRY_BASE_DELAY_SECONDS", 60)
	viper.SetDefault("DELIVERY_TIMEOUT_SECONDS", 30)
	viper.SetDefault("WORKER_PARALLELISM", 4)
	viper.SetDefault("WORKER_POLL_INTERVAL_MS", 500)
	viper.SetDefault("WORKER_BURST", 5)
	viper.SetDefault("WORKER_IDLE_DELAY_MS", 800)
	viper.SetDefault("SEED_FILE", "")

	// A missing .env file is fine; the environment still applies
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &config, nil
}

// RetryBaseDelay returns the backoff base as a duration
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelaySeconds) * time.Second
}

// DeliveryTimeout returns the per-attempt network timeout as a duration
func (c *Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.DeliveryTimeoutSecs) * time.Second
}

// WorkerPollInterval returns the worker polling interval as a duration
func (c *Config) WorkerPollInterval() time.Duration {
	return time.Duration(c.WorkerPollMillis) * time.Millisecond
}

// WorkerIdleDelay returns the idle backoff between empty polls as a duration
func (c *Config) WorkerIdleDelay() time.Duration {
	return time.Duration(c.WorkerIdleMillis) * time.Millisecond
}
