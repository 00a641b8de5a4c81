package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH_RATE_PER_MINUTE", "")
	t.Setenv("SERVER_HOST", "")
	t.Setenv("SEED_DEMO_DATA", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")
	t.Setenv("MEMBERSHIP_SERVICE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Membership.ServiceURL)
	assert.Equal(t, 5, cfg.Auth.RatePerMinute)
	assert.True(t, cfg.Seed.DemoData)
	assert.Equal(t, 15*time.Second, cfg.Context.ShutdownTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "3")
	t.Setenv("REQUEST_TIMEOUT", "750ms")
	t.Setenv("SEED_DEMO_DATA", "false")
	t.Setenv("LOG_ENCODING", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Address())
	assert.Equal(t, 3*time.Second, cfg.Context.ShutdownTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Context.RequestTimeout)
	assert.False(t, cfg.Seed.DemoData)
	assert.Equal(t, "console", cfg.Logger.Encoding)
}

func TestLoadRejectsNonPositiveRate(t *testing.T) {
	t.Setenv("AUTH_RATE_PER_MINUTE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("AUTH_BURST", "lots")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Auth.Burst)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
}
