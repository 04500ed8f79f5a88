package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/farm-yield-sim/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock predictor ---

type predictCall struct {
	dim      Dimension
	lat, lon float64
	day      DayOfYear
}

type mockPredictor struct {
	mu     sync.Mutex
	values map[Dimension]float64
	errs   map[Dimension]error
	block  bool
	calls  []predictCall
}

func (m *mockPredictor) Predict(ctx context.Context, dim Dimension, lat, lon float64, day DayOfYear) (float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, predictCall{dim: dim, lat: lat, lon: lon, day: day})
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if err := m.errs[dim]; err != nil {
		return 0, err
	}
	return m.values[dim], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOracle(p Predictor, timeout time.Duration) (*WeatherOracle, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return NewWeatherOracle(p, timeout, discardLogger(), metrics), metrics
}

var riceDay = map[Dimension]float64{
	DimensionTemperature:   25,
	DimensionSunshine:      210,
	DimensionPrecipitation: 230,
}

// --- tests ---

func TestWeatherOracle_AllAvailable(t *testing.T) {
	p := &mockPredictor{values: riceDay}
	oracle, metrics := newTestOracle(p, time.Second)
	coord := Coordinate{Latitude: 35.00001, Longitude: 139.00002}

	w, ok, err := oracle.Forecast(context.Background(), coord, 120)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DailyWeather{MeanTemp: 25, SunshineHours: 210, PrecipitationMm: 230}, w)

	require.Len(t, p.calls, 3)
	for i, dim := range []Dimension{DimensionTemperature, DimensionSunshine, DimensionPrecipitation} {
		assert.Equal(t, predictCall{dim: dim, lat: coord.Latitude, lon: coord.Longitude, day: 120}, p.calls[i])
	}
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.OracleRequests.WithLabelValues("available")), 0)
}

func TestWeatherOracle_AnyUnavailableIsUnavailable(t *testing.T) {
	for _, dim := range []Dimension{DimensionTemperature, DimensionSunshine, DimensionPrecipitation} {
		t.Run(dim.String(), func(t *testing.T) {
			p := &mockPredictor{
				values: riceDay,
				errs:   map[Dimension]error{dim: ErrUnavailable},
			}
			oracle, metrics := newTestOracle(p, time.Second)

			w, ok, err := oracle.Forecast(context.Background(), Coordinate{}, 1)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, DailyWeather{}, w, "no partial reading")
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.OracleRequests.WithLabelValues("unavailable")), 0)
		})
	}
}

func TestWeatherOracle_WrappedUnavailable(t *testing.T) {
	p := &mockPredictor{
		values: riceDay,
		errs:   map[Dimension]error{DimensionSunshine: errors.Join(errors.New("model cache missing"), ErrUnavailable)},
	}
	oracle, _ := newTestOracle(p, time.Second)

	_, ok, err := oracle.Forecast(context.Background(), Coordinate{}, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWeatherOracle_TimeoutIsUnavailable(t *testing.T) {
	p := &mockPredictor{block: true}
	oracle, _ := newTestOracle(p, 10*time.Millisecond)

	_, ok, err := oracle.Forecast(context.Background(), Coordinate{}, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, p.calls, 1, "stops at the first unavailable dimension")
}

func TestWeatherOracle_ParentCancellationIsError(t *testing.T) {
	p := &mockPredictor{block: true}
	oracle, _ := newTestOracle(p, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := oracle.Forecast(ctx, Coordinate{}, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestWeatherOracle_FaultIsError(t *testing.T) {
	boom := errors.New("matrix is singular")
	p := &mockPredictor{
		values: riceDay,
		errs:   map[Dimension]error{DimensionPrecipitation: boom},
	}
	oracle, metrics := newTestOracle(p, time.Second)

	_, ok, err := oracle.Forecast(context.Background(), Coordinate{Latitude: 1, Longitude: 2}, 33)
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "precipitation")
	assert.Contains(t, err.Error(), "day 33")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.OracleRequests.WithLabelValues("fault")), 0)
}

func TestWeatherOracle_NonFiniteIsUnavailable(t *testing.T) {
	p := &mockPredictor{values: map[Dimension]float64{
		DimensionTemperature:   math.NaN(),
		DimensionSunshine:      100,
		DimensionPrecipitation: 100,
	}}
	oracle, _ := newTestOracle(p, 0)

	_, ok, err := oracle.Forecast(context.Background(), Coordinate{}, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWeatherOracle_ConcurrentUse(t *testing.T) {
	p := &mockPredictor{values: riceDay}
	oracle, metrics := newTestOracle(p, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, ok, err := oracle.Forecast(context.Background(), Coordinate{}, DayOfYear(day+1))
			assert.NoError(t, err)
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()

	assert.InDelta(t, 16, testutil.ToFloat64(metrics.OracleRequests.WithLabelValues("available")), 0)
	assert.Len(t, p.calls, 48)
}
