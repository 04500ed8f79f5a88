// Package recorder persists simulation runs for later inspection.
package recorder

import (
	"context"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
)

// Recorder stores completed runs. It satisfies simulation.Sink.
type Recorder interface {
	Name() string
	Publish(ctx context.Context, run domain.Run) error
	Close() error
}

// YieldRecord is one stored cell-month.
type YieldRecord struct {
	Row             int
	Col             int
	Crop            domain.Crop
	Month           int
	DaysWithWeather int
	YieldPercent    *float64
}
