package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Required: issuer claim for access tokens

	Algorithm     string // Optional: signing algorithm (EdDSA, HS256) (default: EdDSA)
	MasterKeyPath string // Optional: path to master key file; falls back to env, then ephemeral
	DatabaseFile  string // Optional: path to SQLite database file (default: ./authcore.db)

	AccessTTL         time.Duration // Access token lifetime for ordinary principals (default: 15m)
	ElevatedAccessTTL time.Duration // Access token lifetime for admins (default: 5m)
	RefreshTTL        time.Duration // Refresh record lifetime (default: 30 days)

	BlacklistBackend   string        // Revocation list backend (memory, redis) (default: memory)
	BlacklistRetention time.Duration // How long revocation entries are kept (default: 24h)
	RedisAddr          string        // Redis address, required when backend is redis

	SweepInterval    time.Duration // Revocation list sweep cadence (default: 5m)
	PurgeInterval    time.Duration // Expired refresh record purge cadence (default: 1h)
	ExpiredRetention time.Duration // Grace before an expired refresh record is purged (default: 30m)

	RefreshRatePerMinute int // Refresh attempts allowed per token per minute (default: 10)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:        getEnvOrDefault("AUTHCORE_ISSUER", "authcore"),
		Algorithm:     getEnvOrDefault("AUTHCORE_ALGORITHM", "EdDSA"),
		MasterKeyPath: os.Getenv("AUTHCORE_MASTER_KEY_PATH"),
		DatabaseFile:  getEnvOrDefault("AUTHCORE_DATABASE_FILE", "authcore.db"),

		AccessTTL:         getEnvDurationOrDefault("AUTHCORE_ACCESS_TTL", 15*time.Minute),
		ElevatedAccessTTL: getEnvDurationOrDefault("AUTHCORE_ELEVATED_ACCESS_TTL", 5*time.Minute),
		RefreshTTL:        getEnvDurationOrDefault("AUTHCORE_REFRESH_TTL", 30*24*time.Hour),

		BlacklistBackend:   getEnvOrDefault("AUTHCORE_BLACKLIST_BACKEND", "memory"),
		BlacklistRetention: getEnvDurationOrDefault("AUTHCORE_BLACKLIST_RETENTION", 24*time.Hour),
		RedisAddr:          os.Getenv("AUTHCORE_REDIS_ADDR"),

		SweepInterval:    getEnvDurationOrDefault("AUTHCORE_SWEEP_INTERVAL", 5*time.Minute),
		PurgeInterval:    getEnvDurationOrDefault("AUTHCORE_PURGE_INTERVAL", 1*time.Hour),
		ExpiredRetention: getEnvDurationOrDefault("AUTHCORE_EXPIRED_RETENTION", 30*time.Minute),

		RefreshRatePerMinute: getEnvIntOrDefault("AUTHCORE_REFRESH_RATE_PER_MINUTE", 10),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
