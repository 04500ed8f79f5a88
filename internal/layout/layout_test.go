package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
origin: {latitude: 35.68, longitude: 139.69}
year: 2024
crops:
  - [rice, pumpkin]
  - [Leafy, none]
`

func TestParse_YAML(t *testing.T) {
	l, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	want := domain.Layout{
		Origin: domain.Coordinate{Latitude: 35.68, Longitude: 139.69},
		Year:   2024,
		Crops: [][]domain.Crop{
			{domain.CropRice, domain.CropPumpkin},
			{domain.CropLeafy, domain.CropNone},
		},
	}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, l.Rows())
	assert.Equal(t, 2, l.Cols())
}

func TestParse_JSON(t *testing.T) {
	data := `{"origin": {"latitude": -33.9, "longitude": 18.4}, "rows": 1, "cols": 3, "crops": [["rice", "rice", ""]]}`

	l, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, [][]domain.Crop{{domain.CropRice, domain.CropRice, domain.CropNone}}, l.Crops)
	assert.Zero(t, l.Year, "year is optional")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"empty document", "", "empty document"},
		{"no crops", "origin: {latitude: 1, longitude: 2}", "no crop rows"},
		{"empty row", "crops: [[]]", "row 0 is empty"},
		{"ragged", "crops: [[rice, rice], [rice]]", "row 1 has 1 cells"},
		{"rows mismatch", "rows: 3\ncrops: [[rice]]", "rows is 3"},
		{"cols mismatch", "cols: 2\ncrops: [[rice]]", "cols is 2"},
		{"latitude", "origin: {latitude: 91, longitude: 0}\ncrops: [[rice]]", "latitude"},
		{"longitude", "origin: {latitude: 0, longitude: -181}\ncrops: [[rice]]", "longitude"},
		{"year", "year: 10000\ncrops: [[rice]]", "year 10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParse_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"unknown crop suggests name", "crops: [[rize]]", "rice"},
		{"unknown field", "crops: [[rice]]\nsoil: loam", "soil"},
		{"malformed", "crops: [[rice", "decode layout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "farm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2024, l.Year)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("crops: []"), 0o600))
	_, err = Load(bad)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), bad)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshal_ParsesBack(t *testing.T) {
	l := domain.Layout{
		Origin: domain.Coordinate{Latitude: 35.5, Longitude: 139.25},
		Year:   2023,
		Crops: [][]domain.Crop{
			{domain.CropRice, domain.CropNone, domain.CropLeafy},
			{domain.CropPumpkin, domain.CropPumpkin, domain.CropRice},
		},
	}

	data, err := Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rows: 2")
	assert.Contains(t, string(data), "cols: 3")
	assert.Contains(t, string(data), "pumpkin")

	got, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(l, got); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}
