// Package config loads service configuration from the environment. Variables
// use the PAYMENTS_ prefix, with __ separating nested sections, e.g.
// PAYMENTS_PROVIDERS__CARD__TIMEOUT=10s.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Payment   PaymentConfig   `koanf:"payment"`
	Providers ProvidersConfig `koanf:"providers"`
	Worker    WorkerConfig    `koanf:"worker"`
	Logger    LoggerConfig    `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// PaymentConfig drives the orchestrator's retry policy and tenancy default.
type PaymentConfig struct {
	DefaultTenantID  string        `koanf:"default_tenant_id" validate:"required"`
	MaxRetryAttempts int           `koanf:"max_retry_attempts" validate:"required"`
	RetryDelay       time.Duration `koanf:"retry_delay" validate:"required"`
}

// ProviderConfig is the per-provider section; one exists for each payment
// method backend.
type ProviderConfig struct {
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Environment string        `koanf:"environment" validate:"required"`
	Timeout     time.Duration `koanf:"timeout" validate:"required"`
	Retries     int           `koanf:"retries"`
}

// Domain converts the section into the snapshot providers expose.
func (c ProviderConfig) Domain() domain.ProviderConfig {
	return domain.ProviderConfig{
		APIKey:        c.APIKey,
		BaseURL:       c.BaseURL,
		Environment:   c.Environment,
		Timeout:       c.Timeout,
		RetryAttempts: c.Retries,
	}
}

type ProvidersConfig struct {
	Card       ProviderConfig `koanf:"card"`
	MBWay      ProviderConfig `koanf:"mbway"`
	Multibanco ProviderConfig `koanf:"multibanco"`
}

// WorkerConfig tunes the pending-payment reconciler.
type WorkerConfig struct {
	Interval    time.Duration `koanf:"interval" validate:"required"`
	MinAge      time.Duration `koanf:"min_age"`
	ExpireAfter time.Duration `koanf:"expire_after"`
	BatchSize   int           `koanf:"batch_size" validate:"required"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

// NewLogger builds the service-wide structured logger.
func (c LoggerConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("PAYMENTS_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "PAYMENTS_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
