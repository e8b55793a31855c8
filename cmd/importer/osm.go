package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"admin-geocoder/internal/extractor"
	"admin-geocoder/internal/importer"
	"admin-geocoder/internal/osmsource"

	"github.com/cheggaaa/pb/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var osmInput string

var osmCmd = &cobra.Command{
	Use:   "osm",
	Short: "Extract admin boundaries from an OSM PBF file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log.Info().Str("input", osmInput).Str("dataset", cfg.Dataset).Msg("importing admins")

		levels, err := cfg.Levels()
		if err != nil {
			return err
		}

		file, err := os.Open(osmInput)
		if err != nil {
			return fmt.Errorf("read boundaries: %w", err)
		}
		defer file.Close()
		stat, err := file.Stat()
		if err != nil {
			return fmt.Errorf("read boundaries: %w", err)
		}

		bar := pb.Start64(stat.Size())
		bar.Set(pb.Bytes, true)
		bar.SetRefreshRate(time.Second)
		current := 0
		ds, err := osmsource.Load(ctx, file, runtime.GOMAXPROCS(-1), func(pass int, scanned int64) {
			if pass != current {
				current = pass
				bar.Set("prefix", fmt.Sprintf("pass %d/3", pass))
			}
			bar.SetCurrent(scanned)
		})
		bar.Finish()
		if err != nil {
			return fmt.Errorf("read boundaries: %w", err)
		}
		rels, ways, nodes := ds.Counts()
		log.Info().Int("relations", rels).Int("ways", ways).Int("nodes", nodes).Msg("boundaries loaded")

		repo, closeRepo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer closeRepo()

		imp := importer.NewAdminImporter(repo, cfg.Dataset, extractor.Config{
			Levels:        levels,
			CodeTag:       cfg.CodeTag,
			Namespace:     cfg.CodeNamespace,
			RawSource:     cfg.RawSource,
			DefaultWeight: cfg.AdminWeight,
		}, log.Logger)

		if _, err := imp.Import(ctx, ds); err != nil {
			return fmt.Errorf("admin import: %w", err)
		}
		return nil
	},
}

func init() {
	osmCmd.Flags().StringVarP(&osmInput, "input", "i", "", "OSM PBF file")
	_ = osmCmd.MarkFlagRequired("input")
}
