package climate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// featureCount is the length of the feature vector
// [1, lat, lon, sin ωd, cos ωd, sin 2ωd, cos 2ωd].
const featureCount = 7

const omega = 2 * math.Pi / 365.25

// HarmonicModel implements domain.Predictor as a linear model over location
// and the first two seasonal harmonics of the day of year.
type HarmonicModel struct {
	name   string
	coeffs map[domain.Dimension]*mat.VecDense
}

// modelFile is the on-disk YAML form.
type modelFile struct {
	Name       string               `yaml:"name"`
	Dimensions map[string][]float64 `yaml:"dimensions"`
}

// LoadModel reads a HarmonicModel from a YAML file.
func LoadModel(path string) (*HarmonicModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read climate model: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes YAML model data. Every listed dimension must carry
// exactly seven coefficients; dimensions may be omitted.
func ParseModel(data []byte) (*HarmonicModel, error) {
	var f modelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode climate model: %w", err)
	}
	if len(f.Dimensions) == 0 {
		return nil, errors.New("climate model has no dimensions")
	}

	m := &HarmonicModel{name: f.Name, coeffs: make(map[domain.Dimension]*mat.VecDense, len(f.Dimensions))}
	for key, c := range f.Dimensions {
		dim, err := parseDimension(key)
		if err != nil {
			return nil, err
		}
		if len(c) != featureCount {
			return nil, fmt.Errorf("climate model %s: want %d coefficients, got %d", key, featureCount, len(c))
		}
		m.coeffs[dim] = mat.NewVecDense(featureCount, append([]float64(nil), c...))
	}
	return m, nil
}

func parseDimension(s string) (domain.Dimension, error) {
	for _, d := range []domain.Dimension{domain.DimensionTemperature, domain.DimensionSunshine, domain.DimensionPrecipitation} {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("climate model: unknown dimension %q", s)
}

// Name is the model name from the file, possibly empty.
func (m *HarmonicModel) Name() string { return m.name }

// Predict evaluates the model. Sunshine and precipitation never go negative.
func (m *HarmonicModel) Predict(ctx context.Context, dim domain.Dimension, lat, lon float64, day domain.DayOfYear) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	coeffs, ok := m.coeffs[dim]
	if !ok {
		return 0, fmt.Errorf("%s: %w", dim, domain.ErrUnavailable)
	}

	v := mat.Dot(coeffs, features(lat, lon, day))
	if dim != domain.DimensionTemperature && v < 0 {
		v = 0
	}
	return v, nil
}

// CheckReadiness always succeeds; a loaded model is ready.
func (m *HarmonicModel) CheckReadiness(context.Context) error { return nil }

func features(lat, lon float64, day domain.DayOfYear) *mat.VecDense {
	d := float64(day)
	return mat.NewVecDense(featureCount, []float64{
		1,
		lat,
		lon,
		math.Sin(omega * d),
		math.Cos(omega * d),
		math.Sin(2 * omega * d),
		math.Cos(2 * omega * d),
	})
}

// NoModel stands in when no model could be loaded. Every prediction is
// unavailable, so every planted month comes out empty.
type NoModel struct {
	Reason error
}

func (NoModel) Predict(context.Context, domain.Dimension, float64, float64, domain.DayOfYear) (float64, error) {
	return 0, domain.ErrUnavailable
}

// CheckReadiness reports the service as not ready.
func (n NoModel) CheckReadiness(context.Context) error {
	if n.Reason != nil {
		return fmt.Errorf("climate model not loaded: %w", n.Reason)
	}
	return errors.New("climate model not loaded")
}
