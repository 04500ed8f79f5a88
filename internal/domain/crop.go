package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownCrop is returned when a crop name does not match any known crop.
var ErrUnknownCrop = errors.New("unknown crop")

// Crop is the plant assigned to a cell. The zero value is CropNone, an
// unplanted cell.
type Crop int

const (
	CropNone Crop = iota
	CropRice
	CropPumpkin
	CropLeafy
)

var cropNames = map[Crop]string{
	CropNone:    "none",
	CropRice:    "rice",
	CropPumpkin: "pumpkin",
	CropLeafy:   "leafy",
}

// Crops lists every crop, planted or not, in declaration order.
func Crops() []Crop {
	return []Crop{CropNone, CropRice, CropPumpkin, CropLeafy}
}

func (c Crop) String() string {
	if name, ok := cropNames[c]; ok {
		return name
	}
	return fmt.Sprintf("crop(%d)", int(c))
}

// Valid reports whether c is one of the declared crops.
func (c Crop) Valid() bool {
	_, ok := cropNames[c]
	return ok
}

// ParseCrop resolves a case-insensitive crop name. An empty name is CropNone.
// Misspelled names are rejected with the closest known name as a hint.
func ParseCrop(s string) (Crop, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return CropNone, nil
	}
	for _, c := range Crops() {
		if cropNames[c] == name {
			return c, nil
		}
	}
	if hint := closestCropName(name); hint != "" {
		return CropNone, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownCrop, s, hint)
	}
	return CropNone, fmt.Errorf("%w %q", ErrUnknownCrop, s)
}

// closestCropName returns the known name within edit distance 2 of name, if any.
func closestCropName(name string) string {
	best, bestDist := "", 3
	for _, c := range Crops() {
		if d := levenshtein.ComputeDistance(name, cropNames[c]); d < bestDist {
			best, bestDist = cropNames[c], d
		}
	}
	return best
}

func (c Crop) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCrop, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Crop) UnmarshalText(text []byte) error {
	parsed, err := ParseCrop(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
