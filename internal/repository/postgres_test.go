package repository

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBoundary(t *testing.T) {
	poly := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}

	tests := []struct {
		name        string
		geom        orb.Geometry
		expected    orb.MultiPolygon
		expectError bool
	}{
		{name: "multipolygon", geom: orb.MultiPolygon{poly}, expected: orb.MultiPolygon{poly}},
		{name: "polygon is promoted", geom: poly, expected: orb.MultiPolygon{poly}},
		{name: "point is rejected", geom: orb.Point{1, 2}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := wkb.Marshal(tt.geom)
			require.NoError(t, err)

			got, err := decodeBoundary(b)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := decodeBoundary([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestCheckDataset(t *testing.T) {
	assert.NoError(t, checkDataset("fr"))
	assert.NoError(t, checkDataset("fr_2024"))
	assert.ErrorIs(t, checkDataset(""), ErrInvalidDataset)
	assert.ErrorIs(t, checkDataset("fr; DROP TABLE admins"), ErrInvalidDataset)
	assert.ErrorIs(t, checkDataset("FR"), ErrInvalidDataset)
}
