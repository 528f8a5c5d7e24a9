// Package config loads process configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the configuration shared by the server, worker and seed commands.
type Config struct {
	DatabaseURL string
	DevInMemory bool

	HTTPAddr        string
	ShutdownTimeout time.Duration

	LogLevel       string
	LogDevelopment bool

	DBMaxConns         int32
	DBMinConns         int32
	DBStatementTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	WorkerPollInterval time.Duration
	WorkerBatchSize    int
	IdempotencyTTL     time.Duration
}

// Load reads the environment. Missing .env is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        GetEnv("DATABASE_URL", ""),
		DevInMemory:        GetEnvBool("DEV_INMEMORY", false),
		HTTPAddr:           GetEnv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:    GetEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:           GetEnv("LOG_LEVEL", "info"),
		LogDevelopment:     GetEnvBool("LOG_DEVELOPMENT", false),
		DBMaxConns:         int32(GetEnvInt("DB_MAX_CONNS", 20)),
		DBMinConns:         int32(GetEnvInt("DB_MIN_CONNS", 2)),
		DBStatementTimeout: GetEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		RedisAddr:          GetEnv("REDIS_ADDR", ""),
		RedisPassword:      GetEnv("REDIS_PASSWORD", ""),
		RedisDB:            GetEnvInt("REDIS_DB", 0),
		LockTTL:            GetEnvDuration("LOCK_TTL", 30*time.Second),
		WorkerPollInterval: GetEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerBatchSize:    GetEnvInt("WORKER_BATCH_SIZE", 100),
		IdempotencyTTL:     GetEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && !c.DevInMemory {
		return errors.New("DATABASE_URL is required unless DEV_INMEMORY=true")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid pool size: min %d, max %d", c.DBMinConns, c.DBMaxConns)
	}
	if c.WorkerBatchSize <= 0 {
		return fmt.Errorf("WORKER_BATCH_SIZE must be positive, got %d", c.WorkerBatchSize)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive, got %s", c.LockTTL)
	}
	return nil
}

// UseRedis reports whether a Redis locker is configured.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}

// GetEnv returns the variable or defaultValue when unset or empty.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt parses an integer variable; unparsable values fall back to defaultValue.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

// GetEnvBool accepts the forms strconv.ParseBool does.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvDuration parses a time.ParseDuration variable.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}
