package config

import (
	"fmt"
	"os"
	"strings"

	"cryptoalert/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	Database   DatabaseConfig            `mapstructure:"database"`
	CoinGecko  CoinGeckoConfig           `mapstructure:"coingecko"`
	Currencies map[string]string         `mapstructure:"currencies"`
	Notifiers  map[string]NotifierConfig `mapstructure:"notifiers"`
	Scheduler  SchedulerConfig           `mapstructure:"scheduler"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Archive    ArchiveConfig             `mapstructure:"archive"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type CoinGeckoConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type NotifierConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Email notifier fields
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	From         string `mapstructure:"from"`
	OperatorAddr string `mapstructure:"operator_addr"`
	// Webhook notifier fields
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

// SchedulerConfig holds the in-process cron settings for serve mode.
type SchedulerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	CollectSpec  string `mapstructure:"collect_spec"`
	EvaluateSpec string `mapstructure:"evaluate_spec"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ArchiveConfig holds cold-storage settings for price history exports.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			DSN:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL: "https://api.coingecko.com/api/v3",
		},
		Scheduler: SchedulerConfig{
			Enabled:      false,
			CollectSpec:  "@every 1m",
			EvaluateSpec: "@every 1m",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "archive",
		},
	}
}

// CurrencySet builds the supported-currency set from configuration, falling
// back to the stock set when the section is empty.
func (c *Config) CurrencySet() core.CurrencySet {
	if len(c.Currencies) == 0 {
		return core.DefaultCurrencies()
	}
	return core.NewCurrencySet(c.Currencies)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Database.DSN == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("database dsn is required"))
	}

	for sym, id := range c.Currencies {
		if sym == "" || id == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("currency mapping entries must be non-empty, got %q: %q", sym, id))
		}
	}

	if email, ok := c.Notifiers["email"]; ok && email.Enabled {
		if email.Host == "" || email.From == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("email notifier requires host and from"))
		}
	}
	if webhook, ok := c.Notifiers["webhook"]; ok && webhook.Enabled {
		if webhook.URL == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("webhook notifier requires url"))
		}
	}

	switch c.Archive.Type {
	case "", "localfs", "s3":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("archive type must be localfs or s3, got %q", c.Archive.Type))
	}

	return nil
}
