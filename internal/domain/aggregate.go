package domain

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// JitterFunc draws the natural-variance perturbation added to a monthly yield.
type JitterFunc func() float64

// UniformJitter draws uniformly from [-5, 5) using r. r is not safe for
// concurrent use, so each row task owns its own.
func UniformJitter(r *rand.Rand) JitterFunc {
	return func() float64 { return r.Float64()*10 - 5 }
}

// NoJitter always returns 0.
func NoJitter() float64 { return 0 }

// AggregateMonth walks every calendar day of month in year, forecasts the
// weather at c, and summarizes it for crop. Unplanted cells are never
// forecast. Unavailable days are skipped; a month without any weather has no
// yield. Forecaster faults are returned.
func AggregateMonth(
	ctx context.Context,
	forecaster Forecaster,
	c Coordinate,
	crop Crop,
	month time.Month,
	year int,
	jitter JitterFunc,
	logger *slog.Logger,
) (MonthlySummary, error) {
	summary := MonthlySummary{Month: month}
	if crop == CropNone {
		return summary, nil
	}

	cond := ConditionFor(crop)
	days := DaysIn(month, year)

	var totalTemp, totalSun, totalPrecip, totalScore float64
	withWeather := 0
	for d := 1; d <= days; d++ {
		w, ok, err := forecaster.Forecast(ctx, c, DayOfYearOf(year, month, d))
		if err != nil {
			return MonthlySummary{}, fmt.Errorf("%s %d day %d: %w", month, year, d, err)
		}
		if !ok {
			continue
		}
		totalTemp += w.MeanTemp
		totalSun += w.SunshineHours
		totalPrecip += w.PrecipitationMm
		totalScore += Score(w, cond)
		withWeather++
	}

	summary.DaysWithWeather = withWeather
	summary.Weather = DailyWeather{
		MeanTemp:        totalTemp / float64(days),
		SunshineHours:   totalSun,
		PrecipitationMm: totalPrecip,
	}

	if withWeather == 0 {
		logger.Debug("no weather resolved for month",
			"lat", c.Latitude,
			"lon", c.Longitude,
			"crop", crop.String(),
			"month", month.String(),
			"year", year,
		)
		return summary, nil
	}

	yield := totalScore/(float64(withWeather)*MaxDailyScore)*100 + jitter()
	summary.YieldPercent = &yield
	logger.Debug("month yield computed",
		"lat", c.Latitude,
		"lon", c.Longitude,
		"crop", crop.String(),
		"month", month.String(),
		"days_with_weather", withWeather,
		"yield_percent", yield,
	)
	return summary, nil
}
