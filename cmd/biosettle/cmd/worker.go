package cmd

import (
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cmendoza/biosettle/internal/config"
	"github.com/cmendoza/biosettle/internal/cron"
)

var withClosure bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background settlement worker",
	Long: `Runs the recurring settlement job for the current billing period.
With --closure, also runs the automatic period closure job that closes
cycles whose end date has passed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if withClosure {
			go func() {
				if err := cron.RunClosure(ctx, cfg.DBDriver, cfg.DSN); err != nil && ctx.Err() == nil {
					log.Printf("closure worker stopped: %v", err)
				}
			}()
		}

		err := cron.Run(ctx, cfg.DBDriver, cfg.DSN)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	workerCmd.Flags().BoolVar(&withClosure, "closure", false, "also run the automatic period closure job")
}
