package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DEV_INMEMORY", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.DevInMemory)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int32(20), cfg.DBMaxConns)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.False(t, cfg.UseRedis())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/ledger")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_MAX_CONNS", "8")
	t.Setenv("DB_MIN_CONNS", "1")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOCK_TTL", "10s")
	t.Setenv("LOG_DEVELOPMENT", "1")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, int32(8), cfg.DBMaxConns)
	assert.Equal(t, int32(1), cfg.DBMinConns)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.True(t, cfg.LogDevelopment)
	assert.True(t, cfg.UseRedis())
}

func TestFromEnv_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DEV_INMEMORY", "")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_InvalidPool(t *testing.T) {
	t.Setenv("DEV_INMEMORY", "true")
	t.Setenv("DB_MAX_CONNS", "2")
	t.Setenv("DB_MIN_CONNS", "5")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestGetEnv_Fallbacks(t *testing.T) {
	t.Setenv("LEDGER_TEST_INT", "not-a-number")
	t.Setenv("LEDGER_TEST_DUR", "forever")

	assert.Equal(t, 7, GetEnvInt("LEDGER_TEST_INT", 7))
	assert.Equal(t, time.Minute, GetEnvDuration("LEDGER_TEST_DUR", time.Minute))
	assert.Equal(t, "x", GetEnv("LEDGER_TEST_UNSET", "x"))
}
