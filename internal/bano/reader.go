package bano

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Reader yields records one line at a time. A malformed line is returned as
// a *RecordError and reading can continue with the next call.
type Reader struct {
	csv  *csv.Reader
	file string
}

// NewReader wraps r. name is used in error messages.
func NewReader(r io.Reader, name string) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{csv: cr, file: name}
}

// Next returns the next record, io.EOF at the end of input, a *RecordError
// for a bad line, or any other error for an unrecoverable read failure.
func (r *Reader) Next() (Record, error) {
	fields, err := r.csv.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return Record{}, &RecordError{File: r.file, Line: parseErr.Line, Err: parseErr.Err}
		}
		return Record{}, err
	}
	line, _ := r.csv.FieldPos(0)

	rec, err := parse(fields)
	if err != nil {
		return Record{}, &RecordError{File: r.file, Line: line, Err: err}
	}
	return rec, nil
}

func parse(fields []string) (Record, error) {
	if len(fields) != fieldCount {
		return Record{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}
	lat, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid latitude %q", fields[6])
	}
	lon, err := strconv.ParseFloat(fields[7], 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid longitude %q", fields[7])
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Record{}, fmt.Errorf("coordinate out of range: %f,%f", lat, lon)
	}
	return Record{
		ID:          fields[0],
		HouseNumber: fields[1],
		Street:      fields[2],
		ZipCode:     fields[3],
		City:        fields[4],
		Source:      fields[5],
		Lat:         lat,
		Lon:         lon,
	}, nil
}

// Files expands path into the list of files to import: the file itself, or
// every regular file of a directory in lexical order.
func Files(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("bano: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("bano: failed to list %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
