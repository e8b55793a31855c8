package resolver

import (
	"context"
	"errors"
	"fmt"

	"admin-geocoder/internal/adminstore"
	"admin-geocoder/internal/geofinder"
	"admin-geocoder/internal/models"

	"github.com/rs/zerolog"
)

// AdminLoader reads the admins of a dataset from the document store.
type AdminLoader interface {
	LoadAdmins(ctx context.Context, dataset string) ([]*models.Admin, error)
}

// Load fills a store with the dataset's admins, builds the boundary index
// and returns a resolver over both. The index is complete before Load
// returns. Admins rejected by the store are logged and left out.
func Load(ctx context.Context, loader AdminLoader, dataset string, logger zerolog.Logger, opts ...geofinder.Option) (*Resolver, error) {
	admins, err := loader.LoadAdmins(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("resolver: failed to load admins of %s: %w", dataset, err)
	}

	store := adminstore.New()
	for _, a := range admins {
		if _, err := store.Add(*a); err != nil {
			if errors.Is(err, adminstore.ErrDuplicateCode) || errors.Is(err, adminstore.ErrDuplicateID) {
				logger.Warn().Str("id", a.ID).Err(err).Msg("skipping duplicate admin")
				continue
			}
			return nil, fmt.Errorf("resolver: %w", err)
		}
	}

	index, err := geofinder.Build(store, opts...)
	if err != nil {
		return nil, fmt.Errorf("resolver: failed to build boundary index for %s: %w", dataset, err)
	}
	logger.Info().
		Str("dataset", dataset).
		Int("admins", store.Len()).
		Int("indexed", index.Len()).
		Msg("boundary index built")

	return New(store, index), nil
}
