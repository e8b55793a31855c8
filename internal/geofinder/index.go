// Package geofinder answers "which admins contain this point" queries.
//
// The bounding box of every admin boundary goes into an R-tree. A query
// first collects the admins whose box contains the point, then runs exact
// polygon containment on those candidates. Box intersection in the tree is
// inclusive, so the narrowing step can over-include but never drop a
// containing admin.
package geofinder

import (
	"errors"
	"math"
	"slices"

	"admin-geocoder/internal/adminstore"
	"admin-geocoder/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// ErrNoBoundaries is returned by Build when boundaries are required but no
// admin in the store has one.
var ErrNoBoundaries = errors.New("geofinder: no admin boundary available")

// Index is immutable once built and safe for concurrent queries.
type Index struct {
	store *adminstore.Store
	tree  rtree.RTreeG[adminstore.Handle]
	size  int
}

type options struct {
	requireBoundaries bool
}

// Option configures Build.
type Option func(*options)

// RequireBoundaries makes Build fail with ErrNoBoundaries on an index that
// would be empty.
func RequireBoundaries(required bool) Option {
	return func(o *options) {
		o.requireBoundaries = required
	}
}

// Build freezes the store and indexes every admin that has a boundary.
// Admins without a boundary are left out of the index.
func Build(store *adminstore.Store, opts ...Option) (*Index, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store.Freeze()

	idx := &Index{store: store}
	for _, h := range store.Handles() {
		a := store.Get(h)
		if !a.HasBoundary() {
			continue
		}
		b := a.Boundary.Bound()
		if !validBound(b) {
			continue
		}
		idx.tree.Insert(b.Min, b.Max, h)
		idx.size++
	}

	if idx.size == 0 && o.requireBoundaries {
		return nil, ErrNoBoundaries
	}
	return idx, nil
}

// Len returns the number of indexed admins.
func (idx *Index) Len() int {
	return idx.size
}

// Query returns the handles of admins whose boundary contains p, in
// ascending handle order.
func (idx *Index) Query(p orb.Point) []adminstore.Handle {
	var out []adminstore.Handle
	for _, h := range idx.Candidates(p) {
		if planar.MultiPolygonContains(idx.store.Get(h).Boundary, p) {
			out = append(out, h)
		}
	}
	return out
}

// QueryAdmins is Query resolved to the admins themselves.
func (idx *Index) QueryAdmins(p orb.Point) []*models.Admin {
	handles := idx.Query(p)
	out := make([]*models.Admin, 0, len(handles))
	for _, h := range handles {
		out = append(out, idx.store.Get(h))
	}
	return out
}

// Candidates returns the admins whose bounding box contains p, in ascending
// handle order, without exact containment. The tree visits entries in an
// order that depends on its node layout, hence the sort.
func (idx *Index) Candidates(p orb.Point) []adminstore.Handle {
	if idx.size == 0 || math.IsNaN(p[0]) || math.IsNaN(p[1]) {
		return nil
	}

	var out []adminstore.Handle
	idx.tree.Search(p, p, func(_, _ [2]float64, h adminstore.Handle) bool {
		out = append(out, h)
		return true
	})
	slices.Sort(out)
	return out
}

func validBound(b orb.Bound) bool {
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1]
}
