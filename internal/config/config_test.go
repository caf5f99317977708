package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 3, cfg.Notify.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "90s")
	t.Setenv("STORAGE_BUCKET", "docs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "docs", cfg.Storage.Bucket)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://tradein@db:5432/tradein")

	cfg, err := LoadDatabase()
	require.NoError(t, err)

	assert.Equal(t, "postgres://tradein@db:5432/tradein", cfg.URL)
	assert.Equal(t, 5, cfg.MaxIdleConns)
}
