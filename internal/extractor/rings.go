package extractor

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
)

var (
	ErrNoOuterRing = errors.New("extractor: no outer way")
	ErrOpenRing    = errors.New("extractor: ways do not form a closed ring")
	ErrMissingRef  = errors.New("extractor: unresolved member reference")
)

// boundary assembles the outer and inner member ways of a relation into a
// multipolygon. Members with an empty role count as outer. Inner rings lying
// in no outer ring are dropped with a warning.
func (e *Extractor) boundary(id osm.RelationID, members osm.Members) (orb.MultiPolygon, error) {
	if e.src == nil {
		return nil, ErrMissingRef
	}

	var outer, inner []orb.LineString
	for _, m := range members {
		if m.Type != osm.TypeWay {
			continue
		}
		if m.Role != RoleOuter && m.Role != RoleInner && m.Role != "" {
			continue
		}
		line, err := e.wayLine(osm.WayID(m.Ref))
		if err != nil {
			return nil, err
		}
		if m.Role == RoleInner {
			inner = append(inner, line)
		} else {
			outer = append(outer, line)
		}
	}
	if len(outer) == 0 {
		return nil, ErrNoOuterRing
	}

	outerRings, err := joinRings(outer)
	if err != nil {
		return nil, fmt.Errorf("outer: %w", err)
	}
	innerRings, err := joinRings(inner)
	if err != nil {
		return nil, fmt.Errorf("inner: %w", err)
	}

	mp := make(orb.MultiPolygon, 0, len(outerRings))
	for _, r := range outerRings {
		mp = append(mp, orb.Polygon{r})
	}
	for _, hole := range innerRings {
		attached := false
		for i := range mp {
			if planar.RingContains(mp[i][0], hole[0]) {
				mp[i] = append(mp[i], hole)
				attached = true
				break
			}
		}
		if !attached {
			e.log.Warn().Int64("relation", int64(id)).Interface("start", hole[0]).Msg("inner ring outside every outer ring dropped")
		}
	}
	return mp, nil
}

func (e *Extractor) wayLine(id osm.WayID) (orb.LineString, error) {
	w, ok := e.src.Way(id)
	if !ok {
		return nil, fmt.Errorf("%w: way %d", ErrMissingRef, id)
	}
	line := make(orb.LineString, 0, len(w.Nodes))
	for _, wn := range w.Nodes {
		n, ok := e.src.Node(wn.ID)
		if !ok {
			return nil, fmt.Errorf("%w: node %d of way %d", ErrMissingRef, wn.ID, id)
		}
		line = append(line, orb.Point{n.Lon, n.Lat})
	}
	if len(line) < 2 {
		return nil, fmt.Errorf("%w: way %d has %d nodes", ErrOpenRing, id, len(line))
	}
	return line, nil
}

// joinRings chains line fragments end to end, reversing them as needed,
// until every fragment belongs to a closed ring. Fragments that are already
// closed are rings of their own and never get chained.
func joinRings(lines []orb.LineString) ([]orb.Ring, error) {
	pending := make([]orb.LineString, len(lines))
	copy(pending, lines)

	var rings []orb.Ring
	for len(pending) > 0 {
		current := append(orb.LineString(nil), pending[0]...)
		pending = pending[1:]

		for !closed(current) {
			next := -1
			for i, l := range pending {
				if closed(l) {
					continue
				}
				switch current[len(current)-1] {
				case l[0]:
					current = append(current, l[1:]...)
					next = i
				case l[len(l)-1]:
					current = append(current, reversed(l)[1:]...)
					next = i
				}
				if next >= 0 {
					break
				}
			}
			if next < 0 {
				return nil, ErrOpenRing
			}
			pending = append(pending[:next], pending[next+1:]...)
		}
		if len(current) < 4 {
			return nil, ErrOpenRing
		}
		rings = append(rings, orb.Ring(current))
	}
	return rings, nil
}

func closed(l orb.LineString) bool {
	return len(l) > 1 && l[0] == l[len(l)-1]
}

func reversed(l orb.LineString) orb.LineString {
	out := make(orb.LineString, len(l))
	for i, p := range l {
		out[len(l)-1-i] = p
	}
	return out
}
