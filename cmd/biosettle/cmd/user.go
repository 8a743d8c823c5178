package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmendoza/biosettle/internal/auth"
	"github.com/cmendoza/biosettle/internal/config"
	"github.com/cmendoza/biosettle/internal/storage"
)

var (
	userPassword string
	userRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		st, err := storage.Open(cmd.Context(), storage.Config{Driver: cfg.DBDriver, DSN: cfg.DSN})
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer st.Close()

		authSvc, err := auth.NewService(st)
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}

		user, err := authSvc.Register(cmd.Context(), args[0], userPassword, userRole)
		if err != nil {
			return err
		}

		fmt.Printf("created user %s with role %s\n", user.Username, user.Role)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password for the new user")
	userCreateCmd.Flags().StringVar(&userRole, "role", "viewer", "role (admin, accountant, viewer)")
	_ = userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
}
