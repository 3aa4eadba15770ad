package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 10*time.Second, cfg.NotifyInterval)
	assert.Equal(t, "stock <= minStock", cfg.LowStockRule)
	assert.Equal(t, "ORD", cfg.OrderCodePrefix)
	assert.Equal(t, 12*time.Second, cfg.LoginInterval())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/bistro")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ORDER_CODE_PREFIX", "bst")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "30")
	t.Setenv("DB_MAX_CONNS", "8")
	t.Setenv("DB_MIN_CONNS", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "BST", cfg.OrderCodePrefix)
	assert.Equal(t, 2*time.Second, cfg.LoginInterval())
	assert.Equal(t, int32(8), cfg.DBMaxConns)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.Error(t, err)
}
