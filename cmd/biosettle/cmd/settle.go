package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmendoza/biosettle/internal/config"
	"github.com/cmendoza/biosettle/internal/logging"
	"github.com/cmendoza/biosettle/internal/notification"
	"github.com/cmendoza/biosettle/internal/settlement"
	"github.com/cmendoza/biosettle/internal/storage"
)

var settleForce bool

var settleCmd = &cobra.Command{
	Use:   "settle <period>",
	Short: "Compute the settlement for a billing period",
	Long: `Computes cost, revenue and margin for every load in the given billing
period (YYYY-MM) and prints the result as JSON. Returns the cached
snapshot unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		periodKey := args[0]
		if _, _, err := settlement.ParsePeriodKey(periodKey); err != nil {
			return err
		}

		cfg := config.FromEnv()
		st, err := storage.Open(cmd.Context(), storage.Config{Driver: cfg.DBDriver, DSN: cfg.DSN})
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer st.Close()

		svc := settlement.NewService(st, logging.Logger)
		result, err := svc.SettlePeriod(cmd.Context(), periodKey, settleForce)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

var closePeriodCmd = &cobra.Command{
	Use:   "close-period <period>",
	Short: "Close a billing period",
	Long: `Performs the accounting closure for the given billing period (YYYY-MM):
freezes every load in the period and marks the economic cycle closed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		periodKey := args[0]
		if _, _, err := settlement.ParsePeriodKey(periodKey); err != nil {
			return err
		}

		cfg := config.FromEnv()
		st, err := storage.Open(cmd.Context(), storage.Config{Driver: cfg.DBDriver, DSN: cfg.DSN})
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer st.Close()

		closer := settlement.NewCloser(st, notification.NewService(st), logging.Logger)
		result, err := closer.ClosePeriod(cmd.Context(), periodKey)
		if err != nil {
			return err
		}

		fmt.Printf("period %s closed: %d loads frozen\n", result.PeriodKey, result.LoadsFrozen)
		return nil
	},
}

func init() {
	settleCmd.Flags().BoolVar(&settleForce, "force", false, "recompute even when a cached snapshot exists")
}
