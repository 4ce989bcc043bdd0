// Package main implements phishctl, a command-line companion to the metrics
// server: it exports normalized datasets and prints funnel and group KPIs.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "phishctl",
	Short:         "Phishing campaign metrics CLI",
	Long:          "phishctl fetches Gophish campaigns or reads a results.csv/events.csv snapshot, and prints the awareness funnel and per-position KPIs.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to the YAML config file")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
