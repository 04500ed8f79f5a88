// Package domain models the farm yield simulation: crops, crop condition
// tables, daily weather readings, and the monthly aggregation that turns a
// month of daily weather into a yield percentage.
//
// # Weather Source
//
// Daily weather is never measured here. A [Predictor] supplied by the model
// subsystem estimates one scalar (temperature, sunshine, precipitation) for a
// coordinate and day of year. [WeatherOracle] issues the three predictions and
// either returns a complete [DailyWeather] or reports the day as unavailable.
// Unavailability is an expected outcome (model absent, load failure, per-call
// timeout); only unexpected predictor faults are returned as errors.
//
// # Crop Conditions
//
// Each crop has, per weather dimension, seven ordered closed bands:
//
//	VeryLow=1  Low=2  ModeratelyLow=3  Moderate=4  ModeratelyHigh=5  High=6  VeryHigh=7
//
// Bands are sorted ascending and contiguous; the VeryLow band is unbounded
// below. Lookup scans VeryHigh first, so a value sitting on the shared edge of
// two adjacent bands (e.g. 26.0 in 24..26 and 26..28) resolves to the higher
// band. A value above the crop's ceiling matches nothing and scores 1.
//
// # Yield
//
// A day scores the sum of its three band points (3..21). A month's yield is
//
//	totalScore / (daysWithWeather * 21) * 100 + jitter
//
// where jitter is uniform in [-5, 5). Days without weather are skipped and do
// not count toward the divisor. A month with no weather at all has no yield.
//
// The monthly weather summary averages temperature over the calendar days of
// the month (not the days with weather) and sums sunshine and precipitation.
// Downstream consumers depend on exactly this shape.
package domain
