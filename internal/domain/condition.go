package domain

import (
	"fmt"
	"math"
)

// Dimension is one of the three scored weather dimensions.
type Dimension int

const (
	DimensionTemperature Dimension = iota
	DimensionSunshine
	DimensionPrecipitation
)

func (d Dimension) String() string {
	switch d {
	case DimensionTemperature:
		return "temperature"
	case DimensionSunshine:
		return "sunshine"
	case DimensionPrecipitation:
		return "precipitation"
	default:
		return fmt.Sprintf("dimension(%d)", int(d))
	}
}

// BandLevel ranks how favorable a value is, VeryLow (1) through VeryHigh (7).
type BandLevel int

const (
	BandVeryLow BandLevel = iota + 1
	BandLow
	BandModeratelyLow
	BandModerate
	BandModeratelyHigh
	BandHigh
	BandVeryHigh
)

// Points is the score contributed by a value in this band.
func (l BandLevel) Points() float64 { return float64(l) }

// Band is a closed interval [Low, High] carrying a level.
type Band struct {
	Level BandLevel
	Low   float64
	High  float64
}

// Contains reports whether v lies in the closed interval. NaN is never contained.
func (b Band) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// BandSet is the seven bands of one dimension, indexed VeryLow..VeryHigh.
type BandSet [7]Band

// Lookup scans from VeryHigh down and returns the first band containing v, so
// a value on a shared edge resolves to the higher band. Values matching no
// band score VeryLow.
func (s BandSet) Lookup(v float64) BandLevel {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Contains(v) {
			return s[i].Level
		}
	}
	return BandVeryLow
}

// CropCondition holds the band sets a crop is scored against.
type CropCondition struct {
	Crop          Crop
	Temperature   BandSet
	Sunshine      BandSet
	Precipitation BandSet
}

// Bands returns the band set for a dimension.
func (c CropCondition) Bands(d Dimension) BandSet {
	switch d {
	case DimensionSunshine:
		return c.Sunshine
	case DimensionPrecipitation:
		return c.Precipitation
	default:
		return c.Temperature
	}
}

// bands builds an ascending band set from the six upper edges of the lower
// bands and the ceiling of VeryHigh. VeryLow is unbounded below.
func bands(e1, e2, e3, e4, e5, e6, ceiling float64) BandSet {
	edges := [8]float64{math.Inf(-1), e1, e2, e3, e4, e5, e6, ceiling}
	var s BandSet
	for i := range s {
		s[i] = Band{Level: BandLevel(i + 1), Low: edges[i], High: edges[i+1]}
	}
	return s
}

// degenerateBands is every band collapsed to the single point 0.
func degenerateBands() BandSet {
	var s BandSet
	for i := range s {
		s[i] = Band{Level: BandLevel(i + 1)}
	}
	return s
}

var conditions = map[Crop]CropCondition{
	CropRice: {
		Crop:          CropRice,
		Temperature:   bands(18, 20, 22, 24, 26, 28, 30),
		Sunshine:      bands(140, 160, 180, 200, 220, 240, 260),
		Precipitation: bands(180, 200, 220, 240, 260, 280, 300),
	},
	CropPumpkin: {
		Crop:          CropPumpkin,
		Temperature:   bands(20, 22, 24, 26, 28, 30, 32),
		Sunshine:      bands(180, 200, 220, 240, 260, 280, 300),
		Precipitation: bands(30, 40, 50, 60, 70, 80, 100),
	},
	CropLeafy: {
		Crop:          CropLeafy,
		Temperature:   bands(12, 14, 16, 18, 20, 22, 24),
		Sunshine:      bands(100, 120, 140, 160, 180, 200, 220),
		Precipitation: bands(20, 30, 40, 50, 60, 70, 80),
	},
	CropNone: {
		Crop:          CropNone,
		Temperature:   degenerateBands(),
		Sunshine:      degenerateBands(),
		Precipitation: degenerateBands(),
	},
}

// ConditionFor returns the static condition table of a crop. Unknown crops get
// the degenerate CropNone table.
func ConditionFor(crop Crop) CropCondition {
	if c, ok := conditions[crop]; ok {
		return c
	}
	return conditions[CropNone]
}

// BandFor returns the band level of value for the crop's dimension.
func BandFor(crop Crop, dim Dimension, value float64) BandLevel {
	return ConditionFor(crop).Bands(dim).Lookup(value)
}
