// Package assembler builds indexed address documents from BANO records.
package assembler

import (
	"fmt"
	"strconv"

	"admin-geocoder/internal/bano"
	"admin-geocoder/internal/models"
	"admin-geocoder/internal/resolver"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

// AdminResolver is the part of resolver.Resolver the assembler needs.
type AdminResolver interface {
	Resolve(p orb.Point, code string) []*models.Admin
}

// Assembler is safe for concurrent use when its resolver is.
type Assembler struct {
	resolver  AdminResolver
	cityLevel int
	log       zerolog.Logger
}

// New creates an assembler weighting addresses by the admin at cityLevel.
func New(r AdminResolver, cityLevel int, logger zerolog.Logger) *Assembler {
	return &Assembler{resolver: r, cityLevel: cityLevel, log: logger}
}

// Assemble converts one record into an address document.
func (a *Assembler) Assemble(rec bano.Record) (models.Addr, error) {
	insee, err := rec.Insee()
	if err != nil {
		return models.Addr{}, fmt.Errorf("assembler: %w", err)
	}
	fantoir, err := rec.Fantoir()
	if err != nil {
		return models.Addr{}, fmt.Errorf("assembler: %w", err)
	}

	coord := rec.Coord()
	admins := a.resolver.Resolve(coord.Point(), insee)
	if levels := resolver.AmbiguousLevels(admins); len(levels) > 0 {
		a.log.Debug().Str("id", rec.ID).Ints("levels", levels).Msg("overlapping admins at the same level")
	}
	weight := resolver.Weight(admins, a.cityLevel)
	city := a.cityName(admins, rec)

	addrName := fmt.Sprintf("%s %s", rec.HouseNumber, rec.Street)
	return models.Addr{
		ID:          AddrID(coord),
		HouseNumber: rec.HouseNumber,
		Street: models.Street{
			ID:                    "street:" + fantoir,
			StreetName:            rec.Street,
			Label:                 fmt.Sprintf("%s (%s)", rec.Street, city),
			AdministrativeRegions: admins,
			Weight:                weight,
			ZipCodes:              []string{rec.ZipCode},
			Coord:                 coord,
		},
		Label:    fmt.Sprintf("%s (%s)", addrName, city),
		Coord:    coord,
		Weight:   weight,
		ZipCodes: []string{rec.ZipCode},
	}, nil
}

// cityName prefers the resolved city-level admin over the record's own city
// column, which may be empty or spelled differently.
func (a *Assembler) cityName(admins []*models.Admin, rec bano.Record) string {
	if city, ok := resolver.AdminAt(admins, a.cityLevel); ok && city.Name != "" {
		return city.Name
	}
	return rec.City
}

// AddrID identifies an address by its position.
func AddrID(c models.Coord) string {
	return "addr:" + strconv.FormatFloat(c.Lon, 'f', -1, 64) + ";" + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}
