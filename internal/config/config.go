// Package config loads runtime settings from the environment, an optional
// .env file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	AppName     string
	AppPort     string
	DBDriver    string
	DatabaseDSN string

	JWTSecret   string
	TokenTTL    time.Duration
	AuthEnabled bool

	RabbitMQURL      string
	RabbitMQExchange string
	RabbitMQQueue    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	PageSize    int
	MaxPageSize int
	SeedDir     string
}

// New returns a viper instance with every key defaulted and bound to the environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_NAME", "ridesharingApp")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:ridesharing.db?cache=shared")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("AUTH_ENABLED", true)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "ridesharing.events")
	v.SetDefault("RABBITMQ_QUEUE", "ridesharing.events.audit")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("PAGE_SIZE", 20)
	v.SetDefault("MAX_PAGE_SIZE", 100)
	v.SetDefault("SEED_DIR", "")
	v.AutomaticEnv()
	return v
}

// Load reads .env if present and returns the resolved configuration.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromViper(New())
}

// FromViper resolves a Config from v.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppName:          v.GetString("APP_NAME"),
		AppPort:          v.GetString("APP_PORT"),
		DBDriver:         v.GetString("DB_DRIVER"),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		AuthEnabled:      v.GetBool("AUTH_ENABLED"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RabbitMQExchange: v.GetString("RABBITMQ_EXCHANGE"),
		RabbitMQQueue:    v.GetString("RABBITMQ_QUEUE"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		CacheTTL:         v.GetDuration("CACHE_TTL"),
		PageSize:         v.GetInt("PAGE_SIZE"),
		MaxPageSize:      v.GetInt("MAX_PAGE_SIZE"),
		SeedDir:          v.GetString("SEED_DIR"),
	}

	switch cfg.DBDriver {
	case "sqlite", "postgres", "mysql", "memory":
	default:
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.PageSize <= 0 || cfg.MaxPageSize < cfg.PageSize {
		return cfg, fmt.Errorf("invalid page sizes: PAGE_SIZE=%d MAX_PAGE_SIZE=%d", cfg.PageSize, cfg.MaxPageSize)
	}
	if cfg.AuthEnabled && cfg.JWTSecret == "change-me-in-production" {
		log.Println("Warning: JWT_SECRET is not set, using the development default")
	}
	return cfg, nil
}
