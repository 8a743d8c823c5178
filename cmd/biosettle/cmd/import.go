package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmendoza/biosettle/internal/config"
	"github.com/cmendoza/biosettle/internal/logging"
	"github.com/cmendoza/biosettle/internal/storage"
	"github.com/cmendoza/biosettle/internal/tariffs"
)

var importParser string

var importTariffsCmd = &cobra.Command{
	Use:   "import-tariffs [path]",
	Short: "Import a tariff schedule from an annex PDF",
	Long: `Parses a tariff annex document and upserts contractor and client
tariffs. The path defaults to BIOSETTLE_TARIFF_PDF_PATH.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		path := cfg.TariffPDFPath
		if len(args) == 1 {
			path = args[0]
		}

		st, err := storage.Open(cmd.Context(), storage.Config{Driver: cfg.DBDriver, DSN: cfg.DSN})
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer st.Close()

		svc := tariffs.NewService(st, logging.Logger)
		res, err := svc.ImportPDF(cmd.Context(), importParser, path)
		if err != nil {
			return err
		}

		fmt.Printf("imported %d contractor tariffs and %d client tariffs from %s\n",
			res.ContractorTariffs, res.ClientTariffs, path)
		return nil
	},
}

func init() {
	importTariffsCmd.Flags().StringVar(&importParser, "parser", "anexo", "annex parser to use")
}
