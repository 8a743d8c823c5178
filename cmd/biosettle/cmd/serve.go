package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/cmendoza/biosettle/internal/api"
	"github.com/cmendoza/biosettle/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		mux := api.NewMux()

		addr := ":" + cfg.Port
		log.Printf("biosettle listening on %s", addr)
		return http.ListenAndServe(addr, mux)
	},
}
