package extractor

import (
	"bytes"
	"testing"

	"admin-geocoder/internal/adminstore"
	"admin-geocoder/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSource struct {
	nodes map[osm.NodeID]*osm.Node
	ways  map[osm.WayID]*osm.Way
}

func (s *memSource) Node(id osm.NodeID) (*osm.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s *memSource) Way(id osm.WayID) (*osm.Way, bool) {
	w, ok := s.ways[id]
	return w, ok
}

// newSource lays out a 10x10 square split into two ways, an inner 2x2
// square hole and an admin centre node.
func newSource() *memSource {
	s := &memSource{nodes: map[osm.NodeID]*osm.Node{}, ways: map[osm.WayID]*osm.Way{}}
	add := func(id osm.NodeID, lon, lat float64) {
		s.nodes[id] = &osm.Node{ID: id, Lon: lon, Lat: lat}
	}
	add(1, 0, 0)
	add(2, 10, 0)
	add(3, 10, 10)
	add(4, 0, 10)
	add(11, 4, 4)
	add(12, 6, 4)
	add(13, 6, 6)
	add(14, 4, 6)
	add(100, 5, 8)

	way := func(id osm.WayID, nodes ...osm.NodeID) {
		w := &osm.Way{ID: id}
		for _, n := range nodes {
			w.Nodes = append(w.Nodes, osm.WayNode{ID: n})
		}
		s.ways[id] = w
	}
	way(10, 1, 2, 3)
	// stored backwards to exercise reversal
	way(20, 1, 4, 3)
	way(30, 11, 12, 13, 14, 11)
	return s
}

func relation(id osm.RelationID, tags map[string]string, members ...osm.Member) *osm.Relation {
	r := &osm.Relation{ID: id, Members: members}
	for k, v := range tags {
		r.Tags = append(r.Tags, osm.Tag{Key: k, Value: v})
	}
	return r
}

func squareMembers() []osm.Member {
	return []osm.Member{
		{Type: osm.TypeWay, Ref: 10, Role: RoleOuter},
		{Type: osm.TypeWay, Ref: 20, Role: RoleOuter},
		{Type: osm.TypeWay, Ref: 30, Role: RoleInner},
		{Type: osm.TypeNode, Ref: 100, Role: RoleAdminCentre},
	}
}

func TestExtractor_Extract(t *testing.T) {
	e := New(DefaultConfig(), newSource(), zerolog.Nop())

	tests := []struct {
		name       string
		rel        *osm.Relation
		expectedID string
		expectErr  error
		expectSkip string
	}{
		{
			name: "authoritative code with leading zeros",
			rel: relation(1, map[string]string{
				"boundary": "administrative", "admin_level": "8", "name": "Paris", "ref:INSEE": "0075056",
			}, squareMembers()...),
			expectedID: "admin:fr:75056",
		},
		{
			name: "fallback to raw id",
			rel: relation(123, map[string]string{
				"boundary": "administrative", "admin_level": "4", "name": "Île-de-France",
			}, squareMembers()...),
			expectedID: "admin:osm:123",
		},
		{
			name: "all-zero code means no code",
			rel: relation(124, map[string]string{
				"boundary": "administrative", "admin_level": "8", "name": "Nowhere", "ref:INSEE": "00000",
			}, squareMembers()...),
			expectedID: "admin:osm:124",
		},
		{
			name:      "not a boundary",
			rel:       relation(2, map[string]string{"type": "route", "name": "Bus 42"}),
			expectErr: ErrNotAdmin,
		},
		{
			name: "level not retained",
			rel: relation(3, map[string]string{
				"boundary": "administrative", "admin_level": "10", "name": "Quartier",
			}),
			expectErr: ErrNotAdmin,
		},
		{
			name:       "missing level",
			rel:        relation(4, map[string]string{"boundary": "administrative", "name": "X"}),
			expectSkip: "missing admin_level",
		},
		{
			name: "unparsable level",
			rel: relation(5, map[string]string{
				"boundary": "administrative", "admin_level": "eight", "name": "X",
			}),
			expectSkip: `invalid admin_level "eight"`,
		},
		{
			name: "missing name",
			rel: relation(6, map[string]string{
				"boundary": "administrative", "admin_level": "8",
			}),
			expectSkip: "missing name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin, err := e.Extract(tt.rel)

			switch {
			case tt.expectErr != nil:
				assert.ErrorIs(t, err, tt.expectErr)
			case tt.expectSkip != "":
				var skip *SkipError
				require.ErrorAs(t, err, &skip)
				assert.Equal(t, tt.rel.ID, skip.RelationID)
				assert.Equal(t, tt.expectSkip, skip.Reason)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedID, admin.ID)
			}
		})
	}
}

func TestExtractor_Fields(t *testing.T) {
	e := New(DefaultConfig(), newSource(), zerolog.Nop())
	rel := relation(1, map[string]string{
		"boundary": "administrative", "admin_level": "8", "name": "Paris",
		"ref:INSEE": "0075056", "addr:postcode": "75000",
	}, squareMembers()...)

	admin, err := e.Extract(rel)
	require.NoError(t, err)

	assert.Equal(t, 8, admin.Level)
	assert.Equal(t, "Paris", admin.Name)
	assert.Equal(t, "75056", admin.Insee)
	assert.Equal(t, "75000", admin.ZipCode)
	assert.Equal(t, 1.0, admin.Weight)
	require.NotNil(t, admin.Coord)
	assert.Equal(t, models.Coord{Lat: 8, Lon: 5}, *admin.Coord)

	require.Len(t, admin.Boundary, 1)
	require.Len(t, admin.Boundary[0], 2)
	assert.True(t, planar.MultiPolygonContains(admin.Boundary, orb.Point{1, 1}))
	assert.False(t, planar.MultiPolygonContains(admin.Boundary, orb.Point{5, 5}))
	assert.False(t, planar.MultiPolygonContains(admin.Boundary, orb.Point{11, 5}))
}

func TestExtractor_CentreAndBoundaryFallbacks(t *testing.T) {
	src := newSource()
	e := New(DefaultConfig(), src, zerolog.Nop())
	tags := map[string]string{"boundary": "administrative", "admin_level": "8", "name": "Nowhere", "postal_code": "01000"}

	t.Run("centre is not a node", func(t *testing.T) {
		admin, err := e.Extract(relation(7, tags,
			osm.Member{Type: osm.TypeWay, Ref: 10, Role: RoleAdminCentre},
		))
		require.NoError(t, err)
		assert.Nil(t, admin.Coord)
		assert.Nil(t, admin.Boundary)
		assert.Equal(t, "01000", admin.ZipCode)
	})

	t.Run("open ring leaves boundary empty", func(t *testing.T) {
		admin, err := e.Extract(relation(8, tags,
			osm.Member{Type: osm.TypeWay, Ref: 10, Role: RoleOuter},
		))
		require.NoError(t, err)
		assert.False(t, admin.HasBoundary())
	})

	t.Run("missing way", func(t *testing.T) {
		admin, err := e.Extract(relation(9, tags,
			osm.Member{Type: osm.TypeWay, Ref: 999, Role: RoleOuter},
		))
		require.NoError(t, err)
		assert.Nil(t, admin.Boundary)
	})

	t.Run("no source", func(t *testing.T) {
		admin, err := New(DefaultConfig(), nil, zerolog.Nop()).Extract(relation(10, tags, squareMembers()...))
		require.NoError(t, err)
		assert.Nil(t, admin.Coord)
		assert.Nil(t, admin.Boundary)
	})
}

func TestExtractor_ExtractAll(t *testing.T) {
	e := New(DefaultConfig(), newSource(), zerolog.Nop())
	store := adminstore.New()

	rels := []*osm.Relation{
		relation(1, map[string]string{"boundary": "administrative", "admin_level": "8", "name": "Paris", "ref:INSEE": "75056"}, squareMembers()...),
		relation(2, map[string]string{"boundary": "administrative", "admin_level": "8", "name": "Paris again", "ref:INSEE": "075056"}, squareMembers()...),
		relation(3, map[string]string{"boundary": "administrative", "admin_level": "8"}),
		relation(4, map[string]string{"highway": "primary"}),
		relation(5, map[string]string{"boundary": "administrative", "admin_level": "6", "name": "Dept"}),
	}

	stats, err := e.ExtractAll(rels, store)
	require.NoError(t, err)

	assert.Equal(t, Stats{Extracted: 2, Ignored: 1, Skipped: 1, Duplicates: 1, WithoutBoundary: 1}, stats)
	assert.Equal(t, 2, store.Len())

	h, ok := store.ByCode("75056")
	require.True(t, ok)
	assert.Equal(t, "Paris", store.Get(h).Name)
	_, ok = store.ByID("admin:osm:3")
	assert.False(t, ok)
}

func TestJoinRings(t *testing.T) {
	a := orb.LineString{{0, 0}, {1, 0}}
	b := orb.LineString{{1, 1}, {1, 0}}
	c := orb.LineString{{1, 1}, {0, 1}, {0, 0}}

	rings, err := joinRings([]orb.LineString{a, b, c})
	require.NoError(t, err)
	require.Len(t, rings, 1)
	assert.Equal(t, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}, rings[0])

	_, err = joinRings([]orb.LineString{a, b})
	assert.ErrorIs(t, err, ErrOpenRing)

	rings, err = joinRings(nil)
	require.NoError(t, err)
	assert.Empty(t, rings)
}

func TestJoinRings_ClosedFragmentStaysSeparate(t *testing.T) {
	a := orb.LineString{{0, 0}, {1, 0}}
	loop := orb.LineString{{1, 0}, {2, 0}, {2, 1}, {1, 0}}
	b := orb.LineString{{1, 1}, {1, 0}}
	c := orb.LineString{{1, 1}, {0, 1}, {0, 0}}

	rings, err := joinRings([]orb.LineString{a, loop, b, c})
	require.NoError(t, err)
	require.Len(t, rings, 2)
	assert.Equal(t, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}, rings[0])
	assert.Equal(t, orb.Ring(loop), rings[1])
}

func TestExtractor_OrphanHole(t *testing.T) {
	src := newSource()
	for i, p := range []orb.Point{{20, 20}, {22, 20}, {22, 22}, {20, 22}} {
		id := osm.NodeID(200 + i)
		src.nodes[id] = &osm.Node{ID: id, Lon: p[0], Lat: p[1]}
	}
	src.ways[40] = &osm.Way{ID: 40, Nodes: osm.WayNodes{{ID: 200}, {ID: 201}, {ID: 202}, {ID: 203}, {ID: 200}}}

	var buf bytes.Buffer
	e := New(DefaultConfig(), src, zerolog.New(&buf))

	admin, err := e.Extract(relation(77, map[string]string{
		"boundary": "administrative", "admin_level": "8", "name": "Orphan",
	},
		osm.Member{Type: osm.TypeWay, Ref: 10, Role: RoleOuter},
		osm.Member{Type: osm.TypeWay, Ref: 20, Role: RoleOuter},
		osm.Member{Type: osm.TypeWay, Ref: 40, Role: RoleInner},
	))
	require.NoError(t, err)

	require.Len(t, admin.Boundary, 1)
	assert.Len(t, admin.Boundary[0], 1)
	assert.Contains(t, buf.String(), "inner ring outside every outer ring dropped")
	assert.Contains(t, buf.String(), `"relation":77`)
}
