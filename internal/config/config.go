// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the order service.
type Config struct {
	HTTPListenAddr string

	// Persistence
	SQLitePath string // empty means in-memory only

	// Idempotency cache
	RedisAddr      string // empty means process-local cache
	IdempotencyTTL time.Duration

	// Simulation tuning
	TotalEtaMinutes     int
	HandoffAfterMinutes int
	SimMinute           time.Duration
	PartnerTick         time.Duration
	PartnerStepFactor   float64
}

// Load populates Config from environment variables. A .env file in the
// working directory is read first, best-effort.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPListenAddr:      getenv("HTTP_LISTEN_ADDR", ":8080"),
		SQLitePath:          os.Getenv("SQLITE_PATH"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		IdempotencyTTL:      parseDurationEnv("IDEMPOTENCY_TTL", 10*time.Minute),
		TotalEtaMinutes:     parseIntEnv("TOTAL_ETA_MINUTES", 30),
		HandoffAfterMinutes: parseIntEnv("HANDOFF_AFTER_MINUTES", 5),
		SimMinute:           parseDurationEnv("SIM_MINUTE", time.Second),
		PartnerTick:         parseDurationEnv("PARTNER_TICK", 4*time.Second),
		PartnerStepFactor:   parseFloatEnv("PARTNER_STEP_FACTOR", 0.18),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func parseFloatEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return def
}
