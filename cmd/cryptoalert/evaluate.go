package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cryptoalert/internal/logger"
	"cryptoalert/internal/metrics"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one alert evaluation pass",
	Long:  "Check every active alert rule against the latest recorded prices",
	RunE:  runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
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

	res, err := pipe.EvaluateAlerts(ctx)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	fmt.Printf("Checked %d alerts, triggered %d\n", res.Checked, res.Triggered)
	return nil
}
