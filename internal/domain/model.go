package domain

import (
	"time"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Offset returns the coordinate of grid cell (row, col) when c is the origin
// and step is the per-cell displacement in degrees.
func (c Coordinate) Offset(row, col int, step float64) Coordinate {
	return Coordinate{
		Latitude:  c.Latitude + float64(row)*step,
		Longitude: c.Longitude + float64(col)*step,
	}
}

// DayOfYear is a 1-based ordinal day, 1..366.
type DayOfYear int

// DayOfYearOf derives the ordinal day from a calendar date.
func DayOfYearOf(year int, month time.Month, day int) DayOfYear {
	return DayOfYear(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).YearDay())
}

// DaysIn returns the number of calendar days of month in year.
func DaysIn(month time.Month, year int) int {
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DailyWeather is one estimated day of weather, or the aggregate of a month.
type DailyWeather struct {
	MeanTemp        float64 `json:"mean_temp"`
	SunshineHours   float64 `json:"sunshine_hours"`
	PrecipitationMm float64 `json:"precipitation_mm"`
}

// MonthlySummary is the aggregated weather and yield for one calendar month.
type MonthlySummary struct {
	Month           time.Month   `json:"month"`
	Weather         DailyWeather `json:"weather"`
	YieldPercent    *float64     `json:"yield_percent,omitempty"`
	DaysWithWeather int          `json:"days_with_weather"`
}

// Yield returns the yield percentage and whether one was computed.
func (m MonthlySummary) Yield() (float64, bool) {
	if m.YieldPercent == nil {
		return 0, false
	}
	return *m.YieldPercent, true
}

// FarmCell is one grid position with its twelve monthly summaries.
type FarmCell struct {
	Row        int                `json:"row"`
	Col        int                `json:"col"`
	Coordinate Coordinate         `json:"coordinate"`
	Crop       Crop               `json:"crop"`
	Months     [12]MonthlySummary `json:"months"`
}

// FarmGrid is a row-major Rows x Cols matrix of cells.
type FarmGrid struct {
	Rows  int          `json:"rows"`
	Cols  int          `json:"cols"`
	Cells [][]FarmCell `json:"cells"`
}

// At returns the cell at (row, col). It panics on out-of-range indices.
func (g FarmGrid) At(row, col int) FarmCell {
	return g.Cells[row][col]
}

// Layout describes a farm to simulate: where it is, what grows where, and the
// reference year used for day counts and leap years.
type Layout struct {
	Origin Coordinate `json:"origin" yaml:"origin"`
	Year   int        `json:"year" yaml:"year"`
	Crops  [][]Crop   `json:"crops" yaml:"crops"`
}

// Rows returns the number of rows in the crop matrix.
func (l Layout) Rows() int { return len(l.Crops) }

// Cols returns the length of the first crop row, or 0 for an empty layout.
func (l Layout) Cols() int {
	if len(l.Crops) == 0 {
		return 0
	}
	return len(l.Crops[0])
}

// Run is a completed simulation together with the parameters that produced it.
type Run struct {
	ID        string        `json:"id"`
	Origin    Coordinate    `json:"origin"`
	Year      int           `json:"year"`
	Step      float64       `json:"step"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Grid      FarmGrid      `json:"grid"`
}
