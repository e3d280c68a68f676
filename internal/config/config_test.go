package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "dev_secret", cfg.Secret)
	assert.Equal(t, "pharmacy.db", cfg.DatabaseDSN)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, int64(20), cfg.LowStockThreshold)
	assert.Equal(t, 30, cfg.ExpiryWindowDays)
	assert.Equal(t, 5, cfg.StockUpdateRetries)
	assert.True(t, cfg.SeedUsers)
	assert.Empty(t, cfg.SeedCatalog)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SECRET", "s3cret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOW_STOCK_THRESHOLD", "5")
	t.Setenv("EXPIRY_WINDOW_DAYS", "60")
	t.Setenv("SEED_USERS", "false")
	t.Setenv("SEED_CATALOG", "assets/medicines.csv")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("TIMEZONE", "Asia/Dhaka")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://pos.example.com")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, int64(5), cfg.LowStockThreshold)
	assert.Equal(t, 60, cfg.ExpiryWindowDays)
	assert.False(t, cfg.SeedUsers)
	assert.Equal(t, "assets/medicines.csv", cfg.SeedCatalog)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "Asia/Dhaka", cfg.Location.String())
	assert.Equal(t, []string{"http://localhost:3000", "https://pos.example.com"}, cfg.CORSOrigins)
}

func TestLoadFallsBackOnBadPort(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("HTTP_PORT", "http")
	cfg, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"negative threshold": {"LOW_STOCK_THRESHOLD", "-1"},
		"zero window":        {"EXPIRY_WINDOW_DAYS", "0"},
		"unknown timezone":   {"TIMEZONE", "Mars/Olympus"},
		"zero ttl":           {"TOKEN_TTL", "0s"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("TIMEZONE", "UTC")
			t.Setenv(kv[0], kv[1])
			_, err := load(viper.New())
			require.Error(t, err)
		})
	}
}
