package resolver

import (
	"testing"

	"admin-geocoder/internal/adminstore"
	"admin-geocoder/internal/geofinder"
	"admin-geocoder/internal/models"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minX, minY, maxX, maxY float64) orb.MultiPolygon {
	return orb.MultiPolygon{{{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}}
}

func fixture(t *testing.T) *Resolver {
	t.Helper()
	store := adminstore.New()
	for _, a := range []models.Admin{
		{ID: "admin:osm:region", Name: "Region", Level: 4, Weight: 0.1, Boundary: square(0, 0, 100, 100)},
		{ID: "admin:fr:1001", Name: "Spatial City", Level: 8, Insee: "01001", Weight: 0.4, Boundary: square(10, 10, 20, 20)},
		{ID: "admin:fr:1002", Name: "Coded City", Level: 8, Insee: "01002", Weight: 0.7, Boundary: square(30, 30, 40, 40)},
		{ID: "admin:fr:1003", Name: "Boundless City", Level: 8, Insee: "01003", Weight: 0.9},
		{ID: "admin:osm:dup-a", Name: "Overlap A", Level: 6, Boundary: square(60, 60, 80, 80)},
		{ID: "admin:osm:dup-b", Name: "Overlap B", Level: 6, Boundary: square(70, 70, 90, 90)},
	} {
		_, err := store.Add(a)
		require.NoError(t, err)
	}
	idx, err := geofinder.Build(store)
	require.NoError(t, err)
	return New(store, idx)
}

func names(admins []*models.Admin) []string {
	out := []string{}
	for _, a := range admins {
		out = append(out, a.Name)
	}
	return out
}

func TestResolver_Resolve(t *testing.T) {
	r := fixture(t)

	tests := []struct {
		name     string
		point    orb.Point
		code     string
		expected []string
	}{
		{
			name:     "nested spatial hits",
			point:    orb.Point{15, 15},
			expected: []string{"Region", "Spatial City"},
		},
		{
			name:     "outside every boundary",
			point:    orb.Point{-10, -10},
			expected: []string{},
		},
		{
			name:     "code replaces spatial city and keeps region",
			point:    orb.Point{15, 15},
			code:     "1002",
			expected: []string{"Region", "Coded City"},
		},
		{
			name:     "code with leading zeros",
			point:    orb.Point{15, 15},
			code:     "01002",
			expected: []string{"Region", "Coded City"},
		},
		{
			name:     "code of admin without boundary",
			point:    orb.Point{50, 50},
			code:     "1003",
			expected: []string{"Region", "Boundless City"},
		},
		{
			name:     "code outside every boundary",
			point:    orb.Point{-10, -10},
			code:     "1002",
			expected: []string{"Coded City"},
		},
		{
			name:     "unknown code is ignored",
			point:    orb.Point{15, 15},
			code:     "99999",
			expected: []string{"Region", "Spatial City"},
		},
		{
			name:     "code matching the spatial hit",
			point:    orb.Point{15, 15},
			code:     "1001",
			expected: []string{"Region", "Spatial City"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, names(r.Resolve(tt.point, tt.code)))
		})
	}
}

func TestResolver_AuthoritativeLevelIsUnique(t *testing.T) {
	r := fixture(t)
	coded, ok := r.ByCode("1002")
	require.True(t, ok)

	for _, p := range []orb.Point{{15, 15}, {35, 35}, {50, 50}, {-1, -1}, {75, 75}} {
		var atLevel []*models.Admin
		for _, a := range r.Resolve(p, "1002") {
			if a.Level == coded.Level {
				atLevel = append(atLevel, a)
			}
		}
		require.Len(t, atLevel, 1)
		assert.Same(t, coded, atLevel[0])
	}
}

func TestResolver_Idempotent(t *testing.T) {
	r := fixture(t)
	first := r.Resolve(orb.Point{75, 75}, "")
	second := r.Resolve(orb.Point{75, 75}, "")
	assert.Equal(t, first, second)
	assert.Equal(t, []int{6}, AmbiguousLevels(first))
}

func TestWeight(t *testing.T) {
	r := fixture(t)

	assert.Equal(t, 0.4, Weight(r.Resolve(orb.Point{15, 15}, ""), DefaultCityLevel))
	assert.Equal(t, 0.7, Weight(r.Resolve(orb.Point{15, 15}, "1002"), DefaultCityLevel))
	assert.Equal(t, 0.0, Weight(r.Resolve(orb.Point{50, 50}, ""), DefaultCityLevel))
	assert.Equal(t, 0.0, Weight(nil, DefaultCityLevel))
}

func TestAdminAt(t *testing.T) {
	r := fixture(t)
	admins := r.Resolve(orb.Point{15, 15}, "")

	city, ok := AdminAt(admins, 8)
	require.True(t, ok)
	assert.Equal(t, "Spatial City", city.Name)

	_, ok = AdminAt(admins, 2)
	assert.False(t, ok)
	assert.Empty(t, AmbiguousLevels(admins))
}

func TestResolver_NilIndex(t *testing.T) {
	store := adminstore.New()
	_, err := store.Add(models.Admin{ID: "admin:fr:1", Name: "Coded", Level: 8, Insee: "1"})
	require.NoError(t, err)
	r := New(store, nil)

	assert.Equal(t, []string{"Coded"}, names(r.Resolve(orb.Point{0, 0}, "1")))
	assert.Empty(t, r.Resolve(orb.Point{0, 0}, ""))
}
