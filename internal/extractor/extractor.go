// Package extractor turns raw boundary relations into admins.
package extractor

import (
	"errors"
	"fmt"
	"strconv"

	"admin-geocoder/internal/adminstore"
	"admin-geocoder/internal/models"

	"github.com/paulmach/osm"
	"github.com/rs/zerolog"
)

const (
	RoleAdminCentre = "admin_centre"
	RoleOuter       = "outer"
	RoleInner       = "inner"
)

// ErrNotAdmin marks relations that are not administrative boundaries of a
// retained level. They are ignored silently.
var ErrNotAdmin = errors.New("extractor: not a retained admin boundary")

// SkipError reports an admin boundary relation that had to be rejected.
type SkipError struct {
	RelationID osm.RelationID
	Reason     string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("extractor: relation %d skipped: %s", e.RelationID, e.Reason)
}

// Source resolves the objects referenced by relation members.
type Source interface {
	Node(id osm.NodeID) (*osm.Node, bool)
	Way(id osm.WayID) (*osm.Way, bool)
}

// Config drives the extraction.
type Config struct {
	Levels        []int
	CodeTag       string
	Namespace     string
	RawSource     string
	DefaultWeight float64
}

// DefaultConfig matches the French INSEE setup.
func DefaultConfig() Config {
	return Config{
		Levels:        []int{2, 4, 6, 8},
		CodeTag:       "ref:INSEE",
		Namespace:     "fr",
		RawSource:     "osm",
		DefaultWeight: 1,
	}
}

// Stats counts the outcome of ExtractAll.
type Stats struct {
	Extracted       int
	Ignored         int
	Skipped         int
	Duplicates      int
	WithoutBoundary int
}

// Extractor is stateless apart from its configuration and source.
type Extractor struct {
	cfg    Config
	levels map[int]bool
	src    Source
	log    zerolog.Logger
}

// New creates an extractor. src may be nil, in which case no centre or
// boundary can be resolved.
func New(cfg Config, src Source, logger zerolog.Logger) *Extractor {
	levels := make(map[int]bool, len(cfg.Levels))
	for _, l := range cfg.Levels {
		levels[l] = true
	}
	return &Extractor{cfg: cfg, levels: levels, src: src, log: logger}
}

// Extract converts one relation. It returns ErrNotAdmin for irrelevant
// relations and a *SkipError for malformed admin boundaries.
func (e *Extractor) Extract(rel *osm.Relation) (models.Admin, error) {
	if rel.Tags.Find("boundary") != "administrative" {
		return models.Admin{}, ErrNotAdmin
	}

	rawLevel := rel.Tags.Find("admin_level")
	if rawLevel == "" {
		return models.Admin{}, &SkipError{RelationID: rel.ID, Reason: "missing admin_level"}
	}
	level, err := strconv.Atoi(rawLevel)
	if err != nil {
		return models.Admin{}, &SkipError{RelationID: rel.ID, Reason: fmt.Sprintf("invalid admin_level %q", rawLevel)}
	}
	if !e.levels[level] {
		return models.Admin{}, ErrNotAdmin
	}

	name := rel.Tags.Find("name")
	if name == "" {
		return models.Admin{}, &SkipError{RelationID: rel.ID, Reason: "missing name"}
	}

	code := models.NormalizeCode(rel.Tags.Find(e.cfg.CodeTag))
	admin := models.Admin{
		ID:      e.adminID(rel.ID, code),
		Level:   level,
		Name:    name,
		Insee:   code,
		ZipCode: zipCode(rel.Tags),
		Weight:  e.cfg.DefaultWeight,
		Coord:   e.centre(rel.Members),
	}

	boundary, err := e.boundary(rel.ID, rel.Members)
	if err != nil {
		e.log.Warn().Int64("relation", int64(rel.ID)).Str("name", name).Err(err).Msg("admin boundary not built")
	} else {
		admin.Boundary = boundary
	}
	return admin, nil
}

// ExtractAll extracts every relation into store. Skips and duplicate codes
// are logged and counted; they never abort the run.
func (e *Extractor) ExtractAll(rels []*osm.Relation, store *adminstore.Store) (Stats, error) {
	var stats Stats
	for _, rel := range rels {
		admin, err := e.Extract(rel)
		var skip *SkipError
		switch {
		case errors.Is(err, ErrNotAdmin):
			stats.Ignored++
			continue
		case errors.As(err, &skip):
			e.log.Warn().Int64("relation", int64(skip.RelationID)).Str("reason", skip.Reason).Msg("skipping admin relation")
			stats.Skipped++
			continue
		case err != nil:
			return stats, err
		}

		if _, err := store.Add(admin); err != nil {
			switch {
			case errors.Is(err, adminstore.ErrDuplicateCode), errors.Is(err, adminstore.ErrDuplicateID):
				e.log.Warn().Int64("relation", int64(rel.ID)).Str("id", admin.ID).Err(err).Msg("skipping duplicate admin")
				stats.Duplicates++
				continue
			default:
				return stats, fmt.Errorf("extractor: failed to store admin %s: %w", admin.ID, err)
			}
		}
		if !admin.HasBoundary() {
			stats.WithoutBoundary++
		}
		stats.Extracted++
	}
	return stats, nil
}

func (e *Extractor) adminID(id osm.RelationID, code string) string {
	if code != "" {
		return fmt.Sprintf("admin:%s:%s", e.cfg.Namespace, code)
	}
	return fmt.Sprintf("admin:%s:%d", e.cfg.RawSource, id)
}

func (e *Extractor) centre(members osm.Members) *models.Coord {
	if e.src == nil {
		return nil
	}
	for _, m := range members {
		if m.Role != RoleAdminCentre {
			continue
		}
		if m.Type != osm.TypeNode {
			return nil
		}
		n, ok := e.src.Node(osm.NodeID(m.Ref))
		if !ok {
			return nil
		}
		c := models.NewCoord(n.Lat, n.Lon)
		return &c
	}
	return nil
}

func zipCode(tags osm.Tags) string {
	if zip := tags.Find("addr:postcode"); zip != "" {
		return zip
	}
	return tags.Find("postal_code")
}
