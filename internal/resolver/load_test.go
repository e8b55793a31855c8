package resolver

import (
	"context"
	"testing"

	"admin-geocoder/internal/geofinder"
	"admin-geocoder/internal/models"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAdminLoader struct {
	mock.Mock
}

func (m *MockAdminLoader) LoadAdmins(ctx context.Context, dataset string) ([]*models.Admin, error) {
	args := m.Called(ctx, dataset)
	return args.Get(0).([]*models.Admin), args.Error(1)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		admins      []*models.Admin
		loadErr     error
		opts        []geofinder.Option
		expectError bool
	}{
		{
			name: "admins with boundaries",
			admins: []*models.Admin{
				{ID: "admin:fr:1", Name: "City", Level: 8, Insee: "1", Boundary: square(0, 0, 1, 1)},
				{ID: "admin:osm:2", Name: "Duplicate", Level: 8, Insee: "01"},
			},
		},
		{
			name:        "repository error",
			admins:      []*models.Admin(nil),
			loadErr:     assert.AnError,
			expectError: true,
		},
		{
			name:        "boundaries required but absent",
			admins:      []*models.Admin{{ID: "admin:fr:1", Name: "City", Level: 8, Insee: "1"}},
			opts:        []geofinder.Option{geofinder.RequireBoundaries(true)},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := new(MockAdminLoader)
			loader.On("LoadAdmins", mock.Anything, "fr").Return(tt.admins, tt.loadErr)

			r, err := Load(context.Background(), loader, "fr", zerolog.Nop(), tt.opts...)
			loader.AssertExpectations(t)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			got := r.Resolve(orb.Point{0.5, 0.5}, "")
			require.Len(t, got, 1)
			assert.Equal(t, "City", got[0].Name)
		})
	}
}
