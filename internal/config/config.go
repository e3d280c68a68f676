package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds application configuration values.
type Config struct {
	Secret             string        `mapstructure:"secret"`
	DatabaseDSN        string        `mapstructure:"database-dsn"`
	HTTPPort           string        `mapstructure:"http-port"`
	LogLevel           string        `mapstructure:"log-level"`
	LowStockThreshold  int64         `mapstructure:"low-stock-threshold"`
	ExpiryWindowDays   int           `mapstructure:"expiry-window-days"`
	StockUpdateRetries int           `mapstructure:"stock-update-retries"`
	SeedCatalog        string        `mapstructure:"seed-catalog"`
	SeedUsers          bool          `mapstructure:"seed-users"`
	Timezone           string        `mapstructure:"timezone"`
	TokenTTL           time.Duration `mapstructure:"token-ttl"`
	CORSOrigins        []string      `mapstructure:"cors-origins"`

	Location *time.Location `mapstructure:"-"`
}

var defaults = map[string]any{
	"secret":               "dev_secret",
	"database-dsn":         "pharmacy.db",
	"http-port":            "8080",
	"log-level":            "INFO",
	"low-stock-threshold":  20,
	"expiry-window-days":   30,
	"stock-update-retries": 5,
	"seed-catalog":         "",
	"seed-users":           true,
	"timezone":             "Local",
	"token-ttl":            "24h",
	"cors-origins":         "*",
}

// Load reads configuration from environment variables with reasonable defaults.
// Keys map to env vars by upper-casing and replacing "-" with "_" (e.g. LOW_STOCK_THRESHOLD).
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("could not bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("could not unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("cors-origins"))

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Warningf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}
	if cfg.LowStockThreshold < 0 {
		return Config{}, fmt.Errorf("low-stock-threshold must not be negative, got %d", cfg.LowStockThreshold)
	}
	if cfg.ExpiryWindowDays <= 0 {
		return Config{}, fmt.Errorf("expiry-window-days must be positive, got %d", cfg.ExpiryWindowDays)
	}
	if cfg.StockUpdateRetries <= 0 {
		cfg.StockUpdateRetries = 1
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("token-ttl must be positive, got %s", cfg.TokenTTL)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("unknown timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
