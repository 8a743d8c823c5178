// Package cmd provides the CLI commands for biosettle.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmendoza/biosettle/internal/config"
	"github.com/cmendoza/biosettle/internal/logging"
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "biosettle",
	Short: "Settlement engine for biosolids transport billing",
	Long: `biosettle settles biosolids transport operations: it prices contractor
trips with fuel price adjustment and guaranteed minimum weights, bills
client revenue across transport, disposal and treatment concepts, and
runs monthly billing cycles with accounting closure.

Examples:
  biosettle serve
  biosettle settle 2025-11
  biosettle close-period 2025-11
  biosettle migrate up`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(settleCmd)
	rootCmd.AddCommand(closePeriodCmd)
	rootCmd.AddCommand(importTariffsCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	cfg := config.FromEnv()
	logCfg := logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: "stderr",
	}
	if verbose {
		logCfg.Level = "debug"
	}
	if err := logging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("biosettle version 0.1.0")
	},
}
