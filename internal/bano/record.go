// Package bano reads BANO address files: headerless CSV with the columns
// id, house number, street, postal code, city, source, lat, lon.
package bano

import (
	"errors"
	"fmt"

	"admin-geocoder/internal/models"
)

const fieldCount = 8

var ErrShortID = errors.New("bano: id too short")

// Record is one address line.
type Record struct {
	ID          string
	HouseNumber string
	Street      string
	ZipCode     string
	City        string
	Source      string
	Lat         float64
	Lon         float64
}

// Insee returns the municipality code held in the first five characters of
// the id, without leading zeros.
func (r Record) Insee() (string, error) {
	if len(r.ID) < 5 {
		return "", fmt.Errorf("%w: %q has no INSEE prefix", ErrShortID, r.ID)
	}
	return models.NormalizeCode(r.ID[:5]), nil
}

// Fantoir returns the street code held in the first ten characters of the id.
func (r Record) Fantoir() (string, error) {
	if len(r.ID) < 10 {
		return "", fmt.Errorf("%w: %q has no FANTOIR prefix", ErrShortID, r.ID)
	}
	return r.ID[:10], nil
}

// Coord returns the record position.
func (r Record) Coord() models.Coord {
	return models.NewCoord(r.Lat, r.Lon)
}

// RecordError is a failure confined to a single input line.
type RecordError struct {
	File string
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("bano: %s:%d: %v", e.File, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
