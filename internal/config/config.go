// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds every setting the server and worker read at startup.
type Config struct {
	HTTPAddr string

	StorageDriver string
	DatabaseURL   string
	DBMaxConns    int32
	DBMinConns    int32

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool

	LogLevel string
	LogDev   bool

	OrderCodePrefix string

	// AdminUsername/AdminPassword seed the first administrator at startup
	// when the password is set.
	AdminUsername string
	AdminPassword string

	NotifyInterval time.Duration
	LowStockRule   string

	LoginRatePerMinute float64
	LoginBurst         int

	NATSURL            string
	OutboxPollInterval time.Duration

	ShutdownTimeout time.Duration
}

// Load reads the environment. Missing required values are reported together.
func Load() (*Config, error) {
	var missing []string
	must := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		DBMaxConns:         int32(getEnvInt("DB_MAX_CONNS", 20)),
		DBMinConns:         int32(getEnvInt("DB_MIN_CONNS", 2)),
		JWTSecret:          must("JWT_SECRET"),
		SessionTTL:         getEnvDuration("SESSION_TTL", 12*time.Hour),
		CookieSecure:       getEnvBool("COOKIE_SECURE", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogDev:             getEnvBool("LOG_DEV", false),
		OrderCodePrefix:    strings.ToUpper(getEnv("ORDER_CODE_PREFIX", "ORD")),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		NotifyInterval:     getEnvDuration("NOTIFY_INTERVAL", 10*time.Second),
		LowStockRule:       getEnv("LOW_STOCK_RULE", "stock <= minStock"),
		LoginRatePerMinute: getEnvFloat("LOGIN_RATE_PER_MINUTE", 5),
		LoginBurst:         getEnvInt("LOGIN_BURST", 5),
		NATSURL:            os.Getenv("NATS_URL"),
		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		cfg.DatabaseURL = must("DATABASE_URL")
	case DriverMemory:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", cfg.DBMinConns, cfg.DBMaxConns)
	}
	if cfg.LoginRatePerMinute <= 0 || cfg.LoginBurst <= 0 {
		return nil, fmt.Errorf("login rate limit must be positive")
	}
	return cfg, nil
}

// LoginInterval is the time between two refilled login attempts.
func (c *Config) LoginInterval() time.Duration {
	return time.Duration(float64(time.Minute) / c.LoginRatePerMinute)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
