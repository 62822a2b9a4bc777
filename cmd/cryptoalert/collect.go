package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cryptoalert/internal/logger"
	"cryptoalert/internal/metrics"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one price collection pass",
	Long:  "Fetch the current price of every supported currency and record the batch",
	RunE:  runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
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

	pipe, err := buildPipeline(cfg, st, metrics.NewRegistry(), log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := pipe.CollectPrices(ctx)
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	fmt.Printf("Recorded %d prices at %s\n", res.Collected, res.Timestamp.Format(time.RFC3339))
	return nil
}
