// Package importer runs the two import pipelines: boundary relations into
// admins, and address files into indexed address documents.
package importer

import (
	"context"
	"fmt"

	"admin-geocoder/internal/adminstore"
	"admin-geocoder/internal/extractor"
	"admin-geocoder/internal/metrics"
	"admin-geocoder/internal/models"
	"admin-geocoder/internal/osmsource"

	"github.com/rs/zerolog"
)

// AdminRepository persists the admins of a dataset.
type AdminRepository interface {
	SaveAdmins(ctx context.Context, dataset string, admins []*models.Admin) (int64, error)
}

// AdminImporter extracts admins from an OSM dataset and saves them.
type AdminImporter struct {
	repo    AdminRepository
	dataset string
	cfg     extractor.Config
	log     zerolog.Logger
}

// NewAdminImporter creates an admin importer for dataset.
func NewAdminImporter(repo AdminRepository, dataset string, cfg extractor.Config, logger zerolog.Logger) *AdminImporter {
	return &AdminImporter{repo: repo, dataset: dataset, cfg: cfg, log: logger}
}

// Import extracts every admin relation of ds and replaces the dataset's
// admins with the result.
func (i *AdminImporter) Import(ctx context.Context, ds *osmsource.Dataset) (extractor.Stats, error) {
	store := adminstore.New()
	ex := extractor.New(i.cfg, ds, i.log)

	stats, err := ex.ExtractAll(ds.Relations, store)
	if err != nil {
		return stats, fmt.Errorf("importer: extraction failed: %w", err)
	}
	store.Freeze()

	metrics.AdminsExtractedTotal.Add(float64(stats.Extracted))
	metrics.AdminsSkippedTotal.WithLabelValues("malformed").Add(float64(stats.Skipped))
	metrics.AdminsSkippedTotal.WithLabelValues("duplicate").Add(float64(stats.Duplicates))

	n, err := i.repo.SaveAdmins(ctx, i.dataset, store.Admins())
	if err != nil {
		return stats, fmt.Errorf("importer: failed to save admins: %w", err)
	}

	i.log.Info().
		Str("dataset", i.dataset).
		Int64("saved", n).
		Int("skipped", stats.Skipped).
		Int("duplicates", stats.Duplicates).
		Int("without_boundary", stats.WithoutBoundary).
		Msg("admins imported")
	return stats, nil
}
