package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxviazov/convention-catalog-service/internal/config"
	"github.com/maxviazov/convention-catalog-service/internal/logger"
	"github.com/maxviazov/convention-catalog-service/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|version|redo|reset]",
	Short:     "Apply or inspect the embedded database migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status", "version", "redo", "reset"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config loading failed: %w", err)
		}
		if cfg.Storage.Driver != config.DriverPostgres {
			return fmt.Errorf("migrate needs the %s storage driver, config has %q", config.DriverPostgres, cfg.Storage.Driver)
		}
		appLogger, err := logger.New(&cfg.Logger)
		if err != nil {
			return fmt.Errorf("logger initialization failed: %w", err)
		}

		repo, err := repository.New(cmd.Context(), &cfg.Postgres, &appLogger)
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repository.MigratePool(cmd.Context(), repo.Pool(), args[0]); err != nil {
			return fmt.Errorf("migrate %s: %w", args[0], err)
		}
		appLogger.Info().Str("command", args[0]).Msg("✅ migrate done")
		return nil
	},
}
