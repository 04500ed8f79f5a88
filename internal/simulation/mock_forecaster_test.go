package simulation_test

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
)

// mockForecaster is a concurrency-safe Forecaster whose reading is derived
// from the coordinate, so every cell gets distinct but reproducible weather.
type mockForecaster struct {
	weather func(c domain.Coordinate, day domain.DayOfYear) (domain.DailyWeather, bool)
	// fail returns a non-nil error (or panics) for coordinates that should fault.
	fail func(c domain.Coordinate) error
	// rowDelay sleeps once per distinct latitude, scrambling row completion order.
	rowDelay bool

	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	delayed  sync.Map
}

func (m *mockForecaster) Forecast(_ context.Context, c domain.Coordinate, day domain.DayOfYear) (domain.DailyWeather, bool, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if m.rowDelay {
		if _, loaded := m.delayed.LoadOrStore(c.Latitude, true); !loaded {
			time.Sleep(delayFor(c.Latitude))
		}
	}
	if m.fail != nil {
		if err := m.fail(c); err != nil {
			return domain.DailyWeather{}, false, err
		}
	}
	weather := m.weather
	if weather == nil {
		weather = constantRice
	}
	w, ok := weather(c, day)
	return w, ok, nil
}

// delayFor maps a latitude to a pseudo-random 0..15ms delay.
func delayFor(lat float64) time.Duration {
	h := fnv.New32a()
	_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(lat)))
	return time.Duration(h.Sum32()%16) * time.Millisecond
}

func constantRice(domain.Coordinate, domain.DayOfYear) (domain.DailyWeather, bool) {
	return domain.DailyWeather{MeanTemp: 25, SunshineHours: 210, PrecipitationMm: 230}, true
}

func neverAvailable(domain.Coordinate, domain.DayOfYear) (domain.DailyWeather, bool) {
	return domain.DailyWeather{}, false
}

// gradientWeather varies every dimension with the cell offset from (35, 139)
// and the season, so cells and months score differently.
func gradientWeather(c domain.Coordinate, day domain.DayOfYear) (domain.DailyWeather, bool) {
	dLat := (c.Latitude - 35) * 1e5
	dLon := (c.Longitude - 139) * 1e5
	season := math.Sin(2 * math.Pi * float64(day) / 365)
	return domain.DailyWeather{
		MeanTemp:        16 + 8*season + 2*dLat,
		SunshineHours:   140 + 60*season + 15*dLon,
		PrecipitationMm: 90 + 70*season + 10*dLat,
	}, true
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noJitter(int) domain.JitterFunc { return domain.NoJitter }
