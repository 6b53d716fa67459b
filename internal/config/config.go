package config // package config loads application configuration from environment variables

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Storage drivers accepted in DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Payment issuers accepted in PAYMENT_ISSUER.
const (
	IssuerHTTP  = "http"
	IssuerLocal = "local"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	JWTSecret  string // secret used to verify and sign JWTs
	AccessTTL  time.Duration
	BcryptCost int
	LogLevel   string
	LogFormat  string // json | text

	DB      DBConfig
	Booking BookingConfig
	Payment PaymentConfig
	AMQPURL string // empty disables event publishing
}

// DBConfig selects the storage backend. The connection fields are only
// required for the mysql driver.
type DBConfig struct {
	Driver      string
	User        string
	Pass        string
	Host        string
	Port        string
	Name        string
	MaxOpen     int
	LockWait    time.Duration
	AutoMigrate bool
	SeedDemo    bool // on by default for the memory driver only
}

// BookingConfig tunes the booking lifecycle.
type BookingConfig struct {
	PendingTimeout time.Duration
	SweepInterval  time.Duration
	SweepBatch     int
	OverlapCheck   bool
}

// PaymentConfig configures the payment issuer and the inbound webhook.
type PaymentConfig struct {
	Issuer        string
	APIURL        string
	APIKey        string
	SiteURL       string // base for completion and return URLs
	Timeout       time.Duration
	WebhookSecret string
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:        envStr("APP_ENV", "dev"),
		Port:       envStr("APP_PORT", "8080"),
		JWTSecret:  must("JWT_SECRET"),
		AccessTTL:  time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute,
		BcryptCost: envInt("BCRYPT_COST", 12),
		LogLevel:   envStr("LOG_LEVEL", "info"),
		LogFormat:  envStr("LOG_FORMAT", "text"),
		AMQPURL:    os.Getenv("AMQP_URL"),
		Booking: BookingConfig{
			PendingTimeout: envDur("BOOKING_PENDING_TIMEOUT", 15*time.Minute),
			SweepInterval:  envDur("BOOKING_SWEEP_INTERVAL", time.Minute),
			SweepBatch:     envInt("BOOKING_SWEEP_BATCH", 200),
			OverlapCheck:   envBool("SCREENING_OVERLAP_CHECK", false),
		},
		Payment: PaymentConfig{
			Issuer:        strings.ToLower(envStr("PAYMENT_ISSUER", IssuerLocal)),
			APIURL:        os.Getenv("PAYMENT_API_URL"),
			APIKey:        os.Getenv("PAYMENT_API_KEY"),
			SiteURL:       strings.TrimRight(envStr("SITE_URL", "http://localhost:8080"), "/"),
			Timeout:       envDur("PAYMENT_TIMEOUT", 10*time.Second),
			WebhookSecret: must("PAYMENT_WEBHOOK_SECRET"),
		},
	}

	cfg.DB = DBConfig{Driver: strings.ToLower(envStr("DB_DRIVER", DriverMySQL))}
	switch cfg.DB.Driver {
	case DriverMySQL:
		cfg.DB.User = must("DB_USER")
		cfg.DB.Pass = os.Getenv("DB_PASS") // empty allowed
		cfg.DB.Host = must("DB_HOST")
		cfg.DB.Port = envStr("DB_PORT", "3306")
		cfg.DB.Name = must("DB_NAME")
		cfg.DB.MaxOpen = envInt("DB_MAX_OPEN", 25)
		cfg.DB.LockWait = envDur("DB_LOCK_WAIT", 5*time.Second)
		cfg.DB.AutoMigrate = envBool("DB_AUTO_MIGRATE", true)
		cfg.DB.SeedDemo = envBool("DB_SEED_DEMO", false)
	case DriverMemory:
		cfg.DB.SeedDemo = envBool("DB_SEED_DEMO", true)
	default:
		logrus.Fatalf("invalid DB_DRIVER %q (want mysql or memory)", cfg.DB.Driver)
	}

	if cfg.Payment.Issuer == IssuerHTTP {
		cfg.Payment.APIURL = strings.TrimRight(must("PAYMENT_API_URL"), "/")
		cfg.Payment.APIKey = must("PAYMENT_API_KEY")
	} else if cfg.Payment.Issuer != IssuerLocal {
		logrus.Fatalf("invalid PAYMENT_ISSUER %q (want http or local)", cfg.Payment.Issuer)
	}
	if cfg.Booking.PendingTimeout <= 0 || cfg.Booking.SweepInterval <= 0 {
		logrus.Fatal("BOOKING_PENDING_TIMEOUT and BOOKING_SWEEP_INTERVAL must be positive")
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
