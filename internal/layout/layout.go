// Package layout reads and writes farm layout files.
//
// A layout is YAML (or JSON, which YAML accepts) of the form:
//
//	origin: {latitude: 35.68, longitude: 139.69}
//	year: 2024
//	crops:
//	  - [rice, pumpkin]
//	  - [leafy, none]
//
// rows and cols are derived from crops. When given explicitly they must agree.
package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a layout that decoded but does not describe a usable farm.
var ErrInvalid = errors.New("invalid layout file")

type file struct {
	Origin domain.Coordinate `yaml:"origin"`
	Year   int               `yaml:"year,omitempty"`
	Rows   *int              `yaml:"rows,omitempty"`
	Cols   *int              `yaml:"cols,omitempty"`
	Crops  [][]domain.Crop   `yaml:"crops"`
}

// Load reads and parses the layout file at path.
func Load(path string) (domain.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Layout{}, fmt.Errorf("read layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return domain.Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse decodes and validates a layout. Unknown fields are rejected.
func Parse(data []byte) (domain.Layout, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Layout{}, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return domain.Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	if err := f.validate(); err != nil {
		return domain.Layout{}, err
	}
	return domain.Layout{Origin: f.Origin, Year: f.Year, Crops: f.Crops}, nil
}

func (f *file) validate() error {
	if len(f.Crops) == 0 {
		return fmt.Errorf("%w: no crop rows", ErrInvalid)
	}
	cols := len(f.Crops[0])
	if cols == 0 {
		return fmt.Errorf("%w: row 0 is empty", ErrInvalid)
	}
	for r, row := range f.Crops {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d cells, row 0 has %d", ErrInvalid, r, len(row), cols)
		}
	}
	if f.Rows != nil && *f.Rows != len(f.Crops) {
		return fmt.Errorf("%w: rows is %d but crops has %d rows", ErrInvalid, *f.Rows, len(f.Crops))
	}
	if f.Cols != nil && *f.Cols != cols {
		return fmt.Errorf("%w: cols is %d but crops has %d columns", ErrInvalid, *f.Cols, cols)
	}
	if f.Origin.Latitude < -90 || f.Origin.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalid, f.Origin.Latitude)
	}
	if f.Origin.Longitude < -180 || f.Origin.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalid, f.Origin.Longitude)
	}
	if f.Year != 0 && (f.Year < 1 || f.Year > 9999) {
		return fmt.Errorf("%w: year %d out of range", ErrInvalid, f.Year)
	}
	return nil
}

// Marshal encodes l as YAML with explicit rows and cols.
func Marshal(l domain.Layout) ([]byte, error) {
	rows, cols := l.Rows(), l.Cols()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file{Origin: l.Origin, Year: l.Year, Rows: &rows, Cols: &cols, Crops: l.Crops}); err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return buf.Bytes(), nil
}
