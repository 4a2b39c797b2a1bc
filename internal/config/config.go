package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	HTTPAddr    string
	DatabaseURL string

	CacheDriver   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	LogLevel    string
	Environment string
	LogFile     string

	CycleEpoch        time.Time
	CycleDurationDays int

	WarmRegions  []string
	CronSpecWarm string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.HTTPAddr = getenv("HTTP_ADDR", ":3000")

	cfg.CacheDriver = strings.ToLower(getenv("CACHE_DRIVER", CacheDriverRedis))
	switch cfg.CacheDriver {
	case CacheDriverRedis, CacheDriverMemory:
	default:
		return nil, fmt.Errorf("invalid CACHE_DRIVER %q: want redis or memory", cfg.CacheDriver)
	}

	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if v := os.Getenv("REDIS_TLS"); v != "" {
		cfg.RedisTLS, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_TLS: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT", "development"))
	cfg.LogFile = getenv("LOG_FILE", "logs/server.log")

	cfg.CycleEpoch, cfg.CycleDurationDays, err = LoadCycle()
	if err != nil {
		return nil, err
	}

	cfg.WarmRegions = splitList(os.Getenv("WARM_REGIONS"))
	cfg.CronSpecWarm = getenv("CRON_SPEC_WARM", "0 * * * *") // hourly

	return cfg, nil
}

// LoadCycle reads only the cycle settings. It needs no database.
func LoadCycle() (time.Time, int, error) {
	_ = godotenv.Load()

	epoch, err := time.Parse(time.RFC3339, getenv("CYCLE_EPOCH", "2024-01-01T19:00:00Z"))
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid CYCLE_EPOCH: %w", err)
	}

	days, err := strconv.Atoi(getenv("CYCLE_DURATION_DAYS", "7"))
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid CYCLE_DURATION_DAYS: %w", err)
	}
	if days <= 0 {
		return time.Time{}, 0, fmt.Errorf("invalid CYCLE_DURATION_DAYS: must be positive, got %d", days)
	}

	return epoch, days, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
