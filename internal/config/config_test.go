package config

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "DATABASE_URL", "REDIS_ADDR", "API_ADDR",
		"TASK_EVENT_QUEUE", "RECORD_LEDGER", "DEFAULT_PLATFORM_FEE_PERCENTAGE",
		"API_MAX_BODY_BYTES", "API_RATE_LIMIT_CAPACITY", "API_RATE_LIMIT_REFILL_PER_SEC",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	resetEnv(t)
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/taskpay")
	defer resetEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, "taskpay:events", cfg.EventQueue)
	assert.False(t, cfg.RecordLedger)
	assert.True(t, cfg.DefaultPlatformFeePercentage.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	resetEnv(t)
	defer resetEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadOverrides(t *testing.T) {
	resetEnv(t)
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/taskpay")
	os.Setenv("APP_ENV", "production")
	os.Setenv("RECORD_LEDGER", "true")
	os.Setenv("DEFAULT_PLATFORM_FEE_PERCENTAGE", "0.1")
	os.Setenv("API_RATE_LIMIT_CAPACITY", "50")
	defer resetEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.RecordLedger)
	assert.True(t, cfg.DefaultPlatformFeePercentage.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, 50, cfg.RateLimitCapacity)
}

func TestValidateFeeRange(t *testing.T) {
	resetEnv(t)
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/taskpay")
	os.Setenv("DEFAULT_PLATFORM_FEE_PERCENTAGE", "1.5")
	defer resetEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 1")
}
