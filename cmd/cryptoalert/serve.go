package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cryptoalert/internal/api"
	"cryptoalert/internal/logger"
	"cryptoalert/internal/metrics"
	"cryptoalert/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CryptoAlert server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize logger
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := metrics.NewRegistry()

	pipe, err := buildPipeline(cfg, st, reg, log)
	if err != nil {
		return err
	}

	log.Info("starting CryptoAlert server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Strings("currencies", cfg.CurrencySet().Symbols()),
	)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: metricsPath,
	}, api.Deps{
		Runner:     pipe,
		Prices:     st.Prices,
		Rules:      st.Rules,
		Users:      st.Users,
		Currencies: cfg.CurrencySet(),
		Pinger:     st,
		Metrics:    reg,
	}, log)

	// Optional in-process schedule; the cron HTTP endpoints work either way.
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(log)
		if err := sched.Add("collect-data", cfg.Scheduler.CollectSpec, func(ctx context.Context) error {
			_, err := pipe.CollectPrices(ctx)
			return err
		}); err != nil {
			return err
		}
		if err := sched.Add("analyze-data", cfg.Scheduler.EvaluateSpec, func(ctx context.Context) error {
			_, err := pipe.EvaluateAlerts(ctx)
			return err
		}); err != nil {
			return err
		}
		sched.Start()
	}

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down CryptoAlert server")

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
