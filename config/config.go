package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingCredential is returned when no feed credential could be resolved.
// Ingestion must not start without one.
var ErrMissingCredential = errors.New("feed credential is not configured")

type Config struct {
	Feed        FeedConfig        `mapstructure:"feed"`
	Chain       ChainConfig       `mapstructure:"chain"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	History     HistoryConfig     `mapstructure:"history"`
	Log         LogConfig         `mapstructure:"log"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	S3          S3Config          `mapstructure:"s3"`
}

type FeedConfig struct {
	URL              string          `mapstructure:"url"`
	APIKey           string          `mapstructure:"api_key"`
	APIKeyParameter  string          `mapstructure:"api_key_parameter"` // SSM parameter name, used in prod
	Exchange         string          `mapstructure:"exchange"`
	HandoffBuffer    int             `mapstructure:"handoff_buffer"`
	HandshakeTimeout time.Duration   `mapstructure:"handshake_timeout"`
	SubscribeRate    float64         `mapstructure:"subscribe_rate"` // subscriptions per second, 0 = unlimited
	Reconnect        ReconnectConfig `mapstructure:"reconnect"`
}

// ReconnectConfig bounds the listener's retry policy after a lost connection.
// MaxAttempts of 0 means a single connection per process lifetime.
type ReconnectConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	Factor      float64       `mapstructure:"factor"`
}

type ChainConfig struct {
	Expiry     string `mapstructure:"expiry"` // e.g. "BANKNIFTY27JAN26"
	StrikeLow  int    `mapstructure:"strike_low"`
	StrikeHigh int    `mapstructure:"strike_high"`
	StrikeStep int    `mapstructure:"strike_step"`
}

type AggregationConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Window       int           `mapstructure:"window"`
}

type HistoryConfig struct {
	Dir             string        `mapstructure:"dir"`
	PersistInterval time.Duration `mapstructure:"persist_interval"`
	Timezone        string        `mapstructure:"timezone"`
	MarketOpen      string        `mapstructure:"market_open"`  // "HH:MM" exchange local
	MarketClose     string        `mapstructure:"market_close"` // "HH:MM" exchange local
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// S3Config configures the optional archive of finished daily tables.
type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", "wss://nimblewebstream.lisuns.com:4576/")
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.api_key_parameter", "")
	v.SetDefault("feed.exchange", "NFO")
	v.SetDefault("feed.handoff_buffer", 1024)
	v.SetDefault("feed.handshake_timeout", 10*time.Second)
	v.SetDefault("feed.subscribe_rate", 0)
	v.SetDefault("feed.reconnect.max_attempts", 0)
	v.SetDefault("feed.reconnect.min_delay", time.Second)
	v.SetDefault("feed.reconnect.max_delay", 30*time.Second)
	v.SetDefault("feed.reconnect.factor", 2.0)

	v.SetDefault("chain.expiry", "BANKNIFTY27JAN26")
	v.SetDefault("chain.strike_low", 59600)
	v.SetDefault("chain.strike_high", 60600)
	v.SetDefault("chain.strike_step", 100)

	v.SetDefault("aggregation.interval", time.Minute)
	v.SetDefault("aggregation.poll_interval", 250*time.Millisecond)
	v.SetDefault("aggregation.window", 20)

	v.SetDefault("history.dir", "data")
	v.SetDefault("history.persist_interval", 30*time.Second)
	v.SetDefault("history.timezone", "Asia/Kolkata")
	v.SetDefault("history.market_open", "09:15")
	v.SetDefault("history.market_close", "15:30")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "oiroc")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "")

	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.prefix", "oi-roc")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.path_style", false)
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
}

// Load loads application configuration using Viper.
// It reads config.yaml when present and overrides with environment variables.
// A missing config file is not an error: every key has a default.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "config"))
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		v.AddConfigPath("config")
	}

	setDefaults(v)

	// Support environment variables with dot notation (e.g., FEED_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// API_KEY is the name the feed credential has always been deployed under.
	_ = v.BindEnv("feed.api_key", "FEED_API_KEY", "API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the listener cannot run without.
func (f FeedConfig) Validate() error {
	if strings.TrimSpace(f.APIKey) == "" {
		return ErrMissingCredential
	}
	if f.URL == "" {
		return errors.New("feed url is not configured")
	}
	if f.HandoffBuffer <= 0 {
		return fmt.Errorf("feed handoff_buffer must be positive, got %d", f.HandoffBuffer)
	}
	return nil
}
