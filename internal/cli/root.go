// Package cli holds the cobra commands of the store-rating-api binary.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating-api/internal/config"
	"github.com/iliyamo/store-rating-api/internal/database"
	"github.com/iliyamo/store-rating-api/internal/logger"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:          "store-rating-api",
	Short:        "Store rating API: auth and store-owner endpoints",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newConsumeCmd())
}

func dbOptions(cfg config.Config) database.Options {
	return database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	}
}

// setup loads configuration and builds the application logger writing to
// LOG_PATH/<logName>.
func setup(logName string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogPath, logName, cfg.LogDebug)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log.With(zap.String("env", cfg.Env)), nil
}
