package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/app"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/config"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mosaic-cli",
		Short: "Maintenance tool for the mosaic gallery",
		Long: `mosaic-cli manages the image catalog and exports collections.

It reads the same environment (or .env file) as the server.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newCollectionCmd())

	return cmd
}

// openApp builds the application from the environment. Logs go to stderr so
// stdout stays clean for dumps.
func openApp(cmd *cobra.Command) (*app.App, *config.Config, *logrus.Logger, error) {
	cfg := config.Load()
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, err
	}
	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, cfg, log, nil
}
