package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cryptoalert/internal/logger"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database schema",
	Long:  "Create the users, alert_rules and price_history tables if they do not exist",
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	fmt.Println("Database schema created")
	return nil
}
