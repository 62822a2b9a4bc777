package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "cryptoalert",
	Short: "CryptoAlert - cryptocurrency price monitoring and alerting",
	Long: `CryptoAlert collects cryptocurrency prices into an append-only history
and fires one-shot email alerts when user-defined price thresholds are crossed.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
