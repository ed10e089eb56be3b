package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds the application configuration. It is constructed once in
// main and passed into service constructors; nothing reads the environment
// after startup.
type Config struct {
	Environment string
	DatabaseURL string
	RedisAddr   string
	APIAddr     string

	EventQueue string

	// DefaultPlatformFeePercentage applies when a hold request carries no
	// explicit fee. Must be within [0, 1].
	DefaultPlatformFeePercentage decimal.Decimal

	// RecordLedger posts double entries for escrow holds and releases.
	RecordLedger bool

	MaxBodyBytes        int64
	RateLimitCapacity   int
	RateLimitRefillRate int
}

// Load reads configuration from the environment. A .env file, when
// present, seeds variables that are not already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:         getenv("APP_ENV", "development"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           getenv("REDIS_ADDR", "localhost:6379"),
		APIAddr:             getenv("API_ADDR", ":8080"),
		EventQueue:          getenv("TASK_EVENT_QUEUE", "taskpay:events"),
		RecordLedger:        getenv("RECORD_LEDGER", "false") == "true",
		MaxBodyBytes:        getenvInt64("API_MAX_BODY_BYTES", 1<<20),
		RateLimitCapacity:   getenvInt("API_RATE_LIMIT_CAPACITY", 20),
		RateLimitRefillRate: getenvInt("API_RATE_LIMIT_REFILL_PER_SEC", 10),
	}

	fee, err := decimal.NewFromString(getenv("DEFAULT_PLATFORM_FEE_PERCENTAGE", "0.05"))
	if err != nil {
		return nil, errors.New("DEFAULT_PLATFORM_FEE_PERCENTAGE must be a decimal")
	}
	cfg.DefaultPlatformFeePercentage = fee

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	var missing []string

	if c.Environment == "" {
		missing = append(missing, "APP_ENV")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	if c.DefaultPlatformFeePercentage.IsNegative() || c.DefaultPlatformFeePercentage.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("DEFAULT_PLATFORM_FEE_PERCENTAGE must be between 0 and 1")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}
