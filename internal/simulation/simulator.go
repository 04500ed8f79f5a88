package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	"github.com/couchcryptid/farm-yield-sim/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidLayout is returned before any work starts when the grid shape or
// crop matrix is malformed.
var ErrInvalidLayout = errors.New("invalid layout")

// DefaultStep is the per-cell coordinate displacement in degrees.
const DefaultStep = 1e-5

// Settings holds the simulation parameters that do not vary per call.
type Settings struct {
	Step       float64 // degrees between adjacent cells
	Year       int     // reference year for day counts and leap years
	MaxWorkers int     // concurrent row tasks; <= 0 means one per row
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithClock sets the time source used to stamp runs.
func WithClock(c clockwork.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// WithJitter replaces the per-row jitter source. newJitter is called once per
// row, sequentially, before the row task starts.
func WithJitter(newJitter func(row int) domain.JitterFunc) Option {
	return func(s *Simulator) { s.newJitter = newJitter }
}

// Simulator walks a farm grid, one concurrent task per row.
type Simulator struct {
	forecaster domain.Forecaster
	settings   Settings
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	newJitter  func(row int) domain.JitterFunc
}

// New creates a Simulator. The forecaster must be safe for concurrent use.
func New(f domain.Forecaster, settings Settings, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Simulator {
	s := &Simulator{
		forecaster: f,
		settings:   settings,
		logger:     logger,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
		newJitter:  randomJitter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// randomJitter gives every row its own freshly seeded generator, so no
// generator is shared between row tasks.
func randomJitter(int) domain.JitterFunc {
	return domain.UniformJitter(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

type rowResult struct {
	index int
	cells []domain.FarmCell
}

// Simulate computes twelve monthly summaries for every cell of a rows x cols
// grid whose cell (0,0) sits at origin. Either every row completes and the
// full grid is returned, or an error is returned and no grid.
func (s *Simulator) Simulate(ctx context.Context, origin domain.Coordinate, rows, cols int, crops [][]domain.Crop) (domain.FarmGrid, error) {
	return s.simulate(ctx, origin, rows, cols, crops, s.settings.Year)
}

// Run simulates a layout and stamps the result with an ID and timing. A zero
// layout year falls back to the configured reference year.
func (s *Simulator) Run(ctx context.Context, layout domain.Layout) (domain.Run, error) {
	year := layout.Year
	if year == 0 {
		year = s.settings.Year
	}

	start := s.clock.Now()
	grid, err := s.simulate(ctx, layout.Origin, layout.Rows(), layout.Cols(), layout.Crops, year)
	if err != nil {
		return domain.Run{}, err
	}

	return domain.Run{
		ID:        uuid.NewString(),
		Origin:    layout.Origin,
		Year:      year,
		Step:      s.settings.Step,
		StartedAt: start.UTC(),
		Duration:  s.clock.Since(start),
		Grid:      grid,
	}, nil
}

func (s *Simulator) simulate(ctx context.Context, origin domain.Coordinate, rows, cols int, crops [][]domain.Crop, year int) (domain.FarmGrid, error) {
	if err := validate(rows, cols, crops, year); err != nil {
		s.metrics.SimulationsTotal.WithLabelValues("invalid").Inc()
		return domain.FarmGrid{}, err
	}

	start := s.clock.Now()
	s.logger.Info("simulation started",
		"rows", rows,
		"cols", cols,
		"year", year,
		"lat", origin.Latitude,
		"lon", origin.Longitude,
	)

	results := make(chan rowResult, rows)
	g, gctx := errgroup.WithContext(ctx)
	if s.settings.MaxWorkers > 0 {
		g.SetLimit(s.settings.MaxWorkers)
	}
	for r := 0; r < rows; r++ {
		jitter := s.newJitter(r)
		cropRow := crops[r]
		g.Go(func() error {
			cells, err := s.simulateRow(gctx, origin, r, cropRow, year, jitter)
			if err != nil {
				return err
			}
			results <- rowResult{index: r, cells: cells}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	if err != nil {
		s.metrics.SimulationsTotal.WithLabelValues("error").Inc()
		s.logger.Error("simulation failed", "rows", rows, "cols", cols, "error", err)
		return domain.FarmGrid{}, fmt.Errorf("simulate %dx%d grid: %w", rows, cols, err)
	}

	grid := domain.FarmGrid{Rows: rows, Cols: cols, Cells: make([][]domain.FarmCell, rows)}
	for res := range results {
		grid.Cells[res.index] = res.cells
	}

	elapsed := s.clock.Since(start)
	s.metrics.SimulationsTotal.WithLabelValues("success").Inc()
	s.metrics.SimulationDuration.Observe(elapsed.Seconds())
	s.logger.Info("simulation finished", "rows", rows, "cols", cols, "duration", elapsed)
	return grid, nil
}

// simulateRow builds one row of cells. It owns its jitter source and writes
// only to its own slice; panics are converted to errors so a broken
// forecaster fails the simulation instead of the process.
func (s *Simulator) simulateRow(ctx context.Context, origin domain.Coordinate, row int, crops []domain.Crop, year int, jitter domain.JitterFunc) (cells []domain.FarmCell, err error) {
	s.metrics.RowsInFlight.Inc()
	defer s.metrics.RowsInFlight.Dec()
	defer func() {
		if p := recover(); p != nil {
			cells, err = nil, fmt.Errorf("row %d: panic: %v", row, p)
		}
	}()

	cells = make([]domain.FarmCell, len(crops))
	for col, crop := range crops {
		cell, err := s.simulateCell(ctx, origin.Offset(row, col, s.settings.Step), row, col, crop, year, jitter)
		if err != nil {
			return nil, fmt.Errorf("row %d col %d: %w", row, col, err)
		}
		cells[col] = cell
	}
	return cells, nil
}

func (s *Simulator) simulateCell(ctx context.Context, c domain.Coordinate, row, col int, crop domain.Crop, year int, jitter domain.JitterFunc) (domain.FarmCell, error) {
	cell := domain.FarmCell{Row: row, Col: col, Coordinate: c, Crop: crop}
	for m := time.January; m <= time.December; m++ {
		if err := ctx.Err(); err != nil {
			return domain.FarmCell{}, err
		}
		summary, err := domain.AggregateMonth(ctx, s.forecaster, c, crop, m, year, jitter, s.logger)
		if err != nil {
			return domain.FarmCell{}, err
		}
		if _, ok := summary.Yield(); !ok && crop != domain.CropNone {
			s.metrics.EmptyMonths.Inc()
		}
		cell.Months[m-1] = summary
	}
	s.metrics.CellsSimulated.Inc()
	return cell, nil
}

func validate(rows, cols int, crops [][]domain.Crop, year int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidLayout, rows, cols)
	}
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidLayout, year)
	}
	if len(crops) != rows {
		return fmt.Errorf("%w: crop matrix has %d rows, want %d", ErrInvalidLayout, len(crops), rows)
	}
	for r, row := range crops {
		if len(row) != cols {
			return fmt.Errorf("%w: crop row %d has %d columns, want %d", ErrInvalidLayout, r, len(row), cols)
		}
		for c, crop := range row {
			if !crop.Valid() {
				return fmt.Errorf("%w: cell (%d,%d) has unknown crop %d", ErrInvalidLayout, r, c, int(crop))
			}
		}
	}
	return nil
}
