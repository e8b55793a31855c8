package main

import (
	"context"
	"fmt"

	"admin-geocoder/internal/config"
	"admin-geocoder/internal/logger"
	"admin-geocoder/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // cobra commands and flags are package level
var (
	configDir string
	dataset   string
	workers   int
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:           "importer",
	Short:         "Import administrative boundaries and addresses",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if dataset != "" {
			cfg.Dataset = dataset
		}
		if workers > 0 {
			cfg.Workers = workers
		}
		logger.Setup(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "directory holding app.env")
	rootCmd.PersistentFlags().StringVarP(&dataset, "dataset", "d", "", "name of the dataset (overrides DATASET)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "number of resolution workers (overrides WORKERS)")

	rootCmd.AddCommand(osmCmd, banoCmd)
}

// openRepository connects to the document store and ensures its schema.
func openRepository(ctx context.Context) (*repository.Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	repo := repository.NewRepository(pool)
	if err := repo.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	return repo, pool.Close, nil
}
