package main

import (
	"fmt"

	"admin-geocoder/internal/assembler"
	"admin-geocoder/internal/bano"
	"admin-geocoder/internal/geofinder"
	"admin-geocoder/internal/importer"
	"admin-geocoder/internal/resolver"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var banoInput string

var banoCmd = &cobra.Command{
	Use:   "bano",
	Short: "Index BANO address files, resolving their admins",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log.Info().Str("input", banoInput).Str("dataset", cfg.Dataset).Msg("importing bano")

		files, err := bano.Files(banoInput)
		if err != nil {
			return fmt.Errorf("list inputs: %w", err)
		}

		repo, closeRepo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer closeRepo()

		adminResolver, err := resolver.Load(ctx, repo, cfg.Dataset, log.Logger,
			geofinder.RequireBoundaries(cfg.RequireBoundaries))
		if err != nil {
			return fmt.Errorf("index build: %w", err)
		}

		imp := importer.NewAddrImporter(
			repo,
			assembler.New(adminResolver, cfg.CityLevel, log.Logger),
			importer.AddrConfig{Dataset: cfg.Dataset, Workers: cfg.Workers, BatchSize: cfg.BatchSize},
			log.Logger,
		)

		report, err := imp.Import(ctx, files)
		if err != nil {
			return fmt.Errorf("address import: %w", err)
		}

		log.Info().
			Int("files", report.Files).
			Int64("imported", report.Imported).
			Int("failed", report.Failed).
			Msg("bano import finished")
		return nil
	},
}

func init() {
	banoCmd.Flags().StringVarP(&banoInput, "input", "i", "", "BANO file or directory of files")
	_ = banoCmd.MarkFlagRequired("input")
}
