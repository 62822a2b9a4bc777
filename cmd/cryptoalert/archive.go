package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cryptoalert/internal/logger"
	"cryptoalert/internal/storage/archive"
)

var archiveDate string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Export one day of price history to cold storage",
	Long:  "Write every observation from one UTC day to the configured archive backend as a JSON document",
	RunE:  runArchive,
}

func init() {
	archiveCmd.Flags().StringVar(&archiveDate, "date", "", "UTC day to export, YYYY-MM-DD (default: yesterday)")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	day := time.Now().UTC().AddDate(0, 0, -1)
	if archiveDate != "" {
		day, err = time.Parse("2006-01-02", archiveDate)
		if err != nil {
			return fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
		}
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	backend, err := buildArchive(cfg)
	if err != nil {
		return fmt.Errorf("creating archive backend: %w", err)
	}

	exporter := archive.NewExporter(st.Prices, backend, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	points, err := exporter.ExportDay(ctx, day)
	if err != nil {
		return fmt.Errorf("exporting %s: %w", day.Format("2006-01-02"), err)
	}

	fmt.Printf("Archived %d observations to %s\n", points, archive.DayKey(day))
	return nil
}
