package models

import (
	"strings"

	"github.com/paulmach/orb"
)

// Admin is an administrative region (country, region, department, city...).
// Boundary is nil when the region has no usable geometry; such an admin can
// only be reached through its authoritative code.
type Admin struct {
	ID       string           `json:"id"`
	Level    int              `json:"level"`
	Name     string           `json:"name"`
	Insee    string           `json:"insee"`
	ZipCode  string           `json:"zip_code"`
	Weight   float64          `json:"weight"`
	Coord    *Coord           `json:"coord,omitempty"`
	Boundary orb.MultiPolygon `json:"-"`
}

// HasBoundary reports whether the admin can be found by point queries.
func (a *Admin) HasBoundary() bool {
	return len(a.Boundary) > 0
}

// Coord is a WGS84 coordinate.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoord builds a coordinate from latitude and longitude.
func NewCoord(lat, lon float64) Coord {
	return Coord{Lat: lat, Lon: lon}
}

// Point converts the coordinate to an orb point (x = lon, y = lat).
func (c Coord) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// NormalizeCode strips the leading zeros of an authoritative code so that
// "0075056" and "75056" designate the same region. An all-zero code
// normalizes to "", meaning no code.
func NormalizeCode(code string) string {
	return strings.TrimLeft(code, "0")
}
