// Package resolver reconciles spatial containment with authoritative codes.
package resolver

import (
	"sort"

	"admin-geocoder/internal/adminstore"
	"admin-geocoder/internal/geofinder"
	"admin-geocoder/internal/models"

	"github.com/paulmach/orb"
)

// DefaultCityLevel is the admin level whose weight is carried by addresses.
const DefaultCityLevel = 8

// Resolver combines a boundary index with the code lookup table of the same
// store. It holds no mutable state and may be shared between goroutines.
type Resolver struct {
	store *adminstore.Store
	index *geofinder.Index
}

// New creates a resolver. The index must have been built from store.
func New(store *adminstore.Store, index *geofinder.Index) *Resolver {
	return &Resolver{store: store, index: index}
}

// Resolve returns the admins containing p. When code designates a known
// admin A, every spatial hit at A's level is replaced by A. The result is
// sorted by level, then id.
func (r *Resolver) Resolve(p orb.Point, code string) []*models.Admin {
	var handles []adminstore.Handle
	if r.index != nil {
		handles = r.index.Query(p)
	}

	if h, ok := r.store.ByCode(code); ok {
		authoritative := r.store.Get(h)
		kept := handles[:0:0]
		for _, c := range handles {
			if r.store.Get(c).Level != authoritative.Level {
				kept = append(kept, c)
			}
		}
		handles = append(kept, h)
	}

	out := make([]*models.Admin, 0, len(handles))
	for _, h := range handles {
		out = append(out, r.store.Get(h))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ByCode returns the admin holding the authoritative code, if any.
func (r *Resolver) ByCode(code string) (*models.Admin, bool) {
	h, ok := r.store.ByCode(code)
	if !ok {
		return nil, false
	}
	return r.store.Get(h), true
}

// Weight returns the weight of the admin at cityLevel, or 0 when the set
// has none.
func Weight(admins []*models.Admin, cityLevel int) float64 {
	for _, a := range admins {
		if a.Level == cityLevel {
			return a.Weight
		}
	}
	return 0
}

// AdminAt returns the first admin of the given level.
func AdminAt(admins []*models.Admin, level int) (*models.Admin, bool) {
	for _, a := range admins {
		if a.Level == level {
			return a, true
		}
	}
	return nil, false
}

// AmbiguousLevels lists, in ascending order, the levels held by more than
// one admin. This only happens with overlapping boundaries and no code to
// settle the level; the resolver does not pick a winner.
func AmbiguousLevels(admins []*models.Admin) []int {
	counts := make(map[int]int)
	for _, a := range admins {
		counts[a.Level]++
	}
	var levels []int
	for level, n := range counts {
		if n > 1 {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	return levels
}
