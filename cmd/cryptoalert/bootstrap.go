package main

import (
	"fmt"

	"go.uber.org/zap"

	"cryptoalert/internal/alert"
	"cryptoalert/internal/config"
	"cryptoalert/internal/metrics"
	"cryptoalert/internal/notifier"
	"cryptoalert/internal/notifier/email"
	"cryptoalert/internal/notifier/webhook"
	"cryptoalert/internal/pipeline"
	"cryptoalert/internal/source"
	"cryptoalert/internal/source/coingecko"
	"cryptoalert/internal/storage/archive"
	"cryptoalert/internal/store/postgres"
)

// loadConfig reads the configured file or falls back to defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// openStore connects to PostgreSQL.
func openStore(cfg *config.Config) (*postgres.Store, error) {
	st, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return st, nil
}

// buildNotifiers registers every enabled notification channel.
func buildNotifiers(cfg *config.Config, log *zap.Logger) (*notifier.Registry, error) {
	registry := notifier.NewRegistry()

	if ec, ok := cfg.Notifiers["email"]; ok && ec.Enabled {
		n, err := email.New(email.Config{
			Host:         ec.Host,
			Port:         ec.Port,
			Username:     ec.Username,
			Password:     ec.Password,
			From:         ec.From,
			OperatorAddr: ec.OperatorAddr,
		})
		if err != nil {
			return nil, fmt.Errorf("creating email notifier: %w", err)
		}
		if err := registry.Register(n); err != nil {
			return nil, err
		}
	}

	if wc, ok := cfg.Notifiers["webhook"]; ok && wc.Enabled {
		n, err := webhook.New(wc.URL, wc.Headers)
		if err != nil {
			return nil, fmt.Errorf("creating webhook notifier: %w", err)
		}
		if err := registry.Register(n); err != nil {
			return nil, err
		}
	}

	if len(registry.All()) == 0 {
		log.Warn("no notifiers enabled, triggered alerts will only be logged")
	}
	return registry, nil
}

// buildSource creates the price provider client.
func buildSource(cfg *config.Config) source.PriceSource {
	currencies := cfg.CurrencySet()
	if cfg.CoinGecko.BaseURL != "" {
		return coingecko.NewWithBaseURL(cfg.CoinGecko.APIKey, cfg.CoinGecko.BaseURL, currencies)
	}
	return coingecko.New(cfg.CoinGecko.APIKey, currencies)
}

// buildPipeline assembles the full collection/evaluation pipeline against a
// PostgreSQL store.
func buildPipeline(cfg *config.Config, st *postgres.Store, reg *metrics.Registry, log *zap.Logger) (*pipeline.Pipeline, error) {
	notifiers, err := buildNotifiers(cfg, log)
	if err != nil {
		return nil, err
	}

	evaluator := alert.NewEvaluator(st.Rules, st.Prices, st.Users, notifiers, log)
	return pipeline.New(buildSource(cfg), st.Prices, evaluator, notifiers, reg, log), nil
}

// buildArchive creates the configured cold-storage backend.
func buildArchive(cfg *config.Config) (archive.Storage, error) {
	switch cfg.Archive.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Archive.Path)
	}
}
