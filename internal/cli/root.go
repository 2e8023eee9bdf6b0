// Package cli implements the leakwatch command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagDB     string
)

var rootCmd = &cobra.Command{
	Use:   "leakwatch",
	Short: "DLP audit trail for LLM traffic",
	Long:  "Observes text flowing to and from LLM services, classifies it for sensitive content, scores risk, and keeps a bounded, queryable audit trail.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Path to SQLite database (overrides config)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
