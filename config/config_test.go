package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestLoadDefaults
func TestLoadDefaults(t *testing.T) {
	t.Setenv("FEED_API_KEY", "")
	t.Setenv("API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "NFO", cfg.Feed.Exchange)
	assert.Equal(t, time.Minute, cfg.Aggregation.Interval)
	assert.Equal(t, 20, cfg.Aggregation.Window)
	assert.Equal(t, 30*time.Second, cfg.History.PersistInterval)
	assert.Equal(t, "Asia/Kolkata", cfg.History.Timezone)
	assert.Equal(t, 100, cfg.Chain.StrikeStep)
}

// go test -v --run TestLoadEnvOverrides
func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FEED_API_KEY", "")
	t.Setenv("API_KEY", "legacy-key")
	t.Setenv("AGGREGATION_INTERVAL", "30s")
	t.Setenv("CHAIN_EXPIRY", "NIFTY30JAN26")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-key", cfg.Feed.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Aggregation.Interval)
	assert.Equal(t, "NIFTY30JAN26", cfg.Chain.Expiry)
}

// go test -v --run TestMissingCredential
func TestMissingCredential(t *testing.T) {
	cfg := &Config{
		Feed: FeedConfig{URL: "wss://example.test", HandoffBuffer: 8},
		Log:  LogConfig{Environment: "dev"},
	}

	err := cfg.ResolveCredential(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))

	cfg.Feed.APIKey = "secret"
	assert.NoError(t, cfg.ResolveCredential(context.Background()))
}

// go test -v --run TestPostgresDSN
func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "pw",
		DBName:   "oiroc",
		SSLMode:  "disable",
		TimeZone: "Asia/Kolkata",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=pw dbname=oiroc sslmode=disable TimeZone=Asia/Kolkata",
		cfg.DSN("dev"))
	assert.Contains(t, cfg.AdminDSN(), "dbname=postgres")
}
