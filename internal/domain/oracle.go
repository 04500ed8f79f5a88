package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/farm-yield-sim/internal/observability"
)

// ErrUnavailable is returned by a Predictor that cannot produce a value, for
// example because no model is loaded.
var ErrUnavailable = errors.New("prediction unavailable")

// ErrPredictionTimeout is the cause attached to the context of a single
// prediction when the oracle's per-call timeout expires. A deadline inherited
// from the caller carries a different cause.
var ErrPredictionTimeout = errors.New("prediction timed out")

// Predictor estimates a single weather dimension for a location and day.
type Predictor interface {
	Predict(ctx context.Context, dim Dimension, lat, lon float64, day DayOfYear) (float64, error)
}

// Forecaster returns a complete daily reading, or ok=false when the day
// cannot be estimated. A non-nil error is a fault, not unavailability.
type Forecaster interface {
	Forecast(ctx context.Context, c Coordinate, day DayOfYear) (DailyWeather, bool, error)
}

// WeatherOracle combines three scalar predictions into a daily reading. It
// holds no mutable state and is safe for concurrent use.
type WeatherOracle struct {
	predictor Predictor
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewWeatherOracle wraps predictor. Each prediction is bounded by timeout; a
// non-positive timeout disables the bound.
func NewWeatherOracle(predictor Predictor, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *WeatherOracle {
	return &WeatherOracle{
		predictor: predictor,
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
	}
}

var forecastDimensions = [3]Dimension{DimensionTemperature, DimensionSunshine, DimensionPrecipitation}

// Forecast predicts temperature, sunshine and precipitation at c on day. If
// any of the three is unavailable the whole reading is.
func (o *WeatherOracle) Forecast(ctx context.Context, c Coordinate, day DayOfYear) (DailyWeather, bool, error) {
	var values [3]float64
	for i, dim := range forecastDimensions {
		v, err := o.predict(ctx, dim, c, day)
		switch {
		case err == nil && !isFinite(v):
			o.logger.Debug("non-finite prediction treated as unavailable",
				"dimension", dim.String(), "lat", c.Latitude, "lon", c.Longitude, "day", int(day))
			o.metrics.OracleRequests.WithLabelValues("unavailable").Inc()
			return DailyWeather{}, false, nil
		case err == nil:
			values[i] = v
			continue
		case ctx.Err() != nil:
			return DailyWeather{}, false, ctx.Err()
		case isUnavailable(err):
			o.metrics.OracleRequests.WithLabelValues("unavailable").Inc()
			return DailyWeather{}, false, nil
		default:
			o.metrics.OracleRequests.WithLabelValues("fault").Inc()
			return DailyWeather{}, false, fmt.Errorf("predict %s at (%.6f, %.6f) day %d: %w",
				dim, c.Latitude, c.Longitude, int(day), err)
		}
	}

	o.metrics.OracleRequests.WithLabelValues("available").Inc()
	return DailyWeather{
		MeanTemp:        values[0],
		SunshineHours:   values[1],
		PrecipitationMm: values[2],
	}, true, nil
}

func (o *WeatherOracle) predict(ctx context.Context, dim Dimension, c Coordinate, day DayOfYear) (float64, error) {
	if o.timeout <= 0 {
		return o.predictor.Predict(ctx, dim, c.Latitude, c.Longitude, day)
	}
	callCtx, cancel := context.WithTimeoutCause(ctx, o.timeout, ErrPredictionTimeout)
	defer cancel()
	return o.predictor.Predict(callCtx, dim, c.Latitude, c.Longitude, day)
}

// isUnavailable reports whether err means "no value" rather than a fault. The
// caller has already ruled out parent-context cancellation, so a deadline
// error here is the per-call timeout.
func isUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
