package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "w")
	t.Setenv("DB_DRIVER", "memory")

	cfg := Load()
	assert.Equal(t, DriverMemory, cfg.DB.Driver)
	assert.True(t, cfg.DB.SeedDemo)
	assert.Equal(t, 15*time.Minute, cfg.Booking.PendingTimeout)
	assert.Equal(t, time.Minute, cfg.Booking.SweepInterval)
	assert.False(t, cfg.Booking.OverlapCheck)
	assert.Equal(t, IssuerLocal, cfg.Payment.Issuer)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadMySQLAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "w")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_USER", "cine")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "cinema")
	t.Setenv("BOOKING_PENDING_TIMEOUT", "5m")
	t.Setenv("SCREENING_OVERLAP_CHECK", "yes")
	t.Setenv("PAYMENT_ISSUER", "http")
	t.Setenv("PAYMENT_API_URL", "https://api.example/v1/")
	t.Setenv("PAYMENT_API_KEY", "k")

	cfg := Load()
	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.False(t, cfg.DB.SeedDemo)
	assert.Equal(t, 5*time.Minute, cfg.Booking.PendingTimeout)
	assert.True(t, cfg.Booking.OverlapCheck)
	assert.Equal(t, "https://api.example/v1", cfg.Payment.APIURL)

	t.Setenv("DB_SEED_DEMO", "true")
	assert.True(t, Load().DB.SeedDemo)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_BOOL", "maybe")
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))
	assert.True(t, envBool("X_BOOL", true))
	assert.Equal(t, "d", envStr("X_MISSING", "d"))
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1m")
	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 5*time.Minute, rl.TTL)
}

func TestCacheMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head,,")
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, LoadCacheConfig().Methods)
}

func TestNewLogger(t *testing.T) {
	log := NewLogger("debug", "json")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	assert.Equal(t, logrus.InfoLevel, NewLogger("loud", "text").GetLevel())
}
