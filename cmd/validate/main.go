// Command validate checks a farm layout and an optional climate model before
// they are handed to the service. It parses both, probes the model at every
// cell of the layout, and dry-runs the simulation to report empty months.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -layout testdata/farm.yaml \
//	  -model testdata/climate.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/farm-yield-sim/internal/adapter/climate"
	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	"github.com/couchcryptid/farm-yield-sim/internal/layout"
	"github.com/couchcryptid/farm-yield-sim/internal/observability"
	"github.com/couchcryptid/farm-yield-sim/internal/simulation"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	layoutPath := flag.String("layout", "", "path to farm layout YAML or JSON")
	modelPath := flag.String("model", "", "path to climate model YAML (optional)")
	year := flag.Int("year", 2024, "reference year when the layout has none")
	flag.Parse()

	if *layoutPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*layoutPath, *modelPath, *year); code != 0 {
		os.Exit(code)
	}
}

func run(layoutPath, modelPath string, year int) int {
	fmt.Println("=== Farm Layout Validation ===")
	fmt.Println()

	l, err := layout.Load(layoutPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load layout: %v\n", err)
		return 1
	}
	if l.Year == 0 {
		l.Year = year
	}

	var predictor domain.Predictor = climate.NoModel{}
	if modelPath != "" {
		model, err := climate.LoadModel(modelPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load model: %v\n", err)
			return 1
		}
		predictor = model
	}

	phases := []*phase{
		validateLayout(l),
		validateModel(predictor, l),
		validateDryRun(predictor, l),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Layout: %dx%d cells at (%.5f, %.5f), year %d\n",
		l.Rows(), l.Cols(), l.Origin.Latitude, l.Origin.Longitude, l.Year)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Layout ──

func validateLayout(l domain.Layout) *phase {
	p := &phase{name: "Phase 1: Layout (shape and crops)"}

	planted := 0
	for r, row := range l.Crops {
		for c, crop := range row {
			if !crop.Valid() {
				p.errorf("cell (%d,%d): unknown crop %d", r, c, int(crop))
			}
			if crop != domain.CropNone {
				planted++
			}
		}
	}
	if planted == 0 {
		p.errorf("no planted cells; every month of every cell will be empty")
	}
	return p
}

// ── Phase 2: Model ──
// Probes every dimension at the corner cells on the first day of each month.

func validateModel(predictor domain.Predictor, l domain.Layout) *phase {
	p := &phase{name: "Phase 2: Climate model (predictions)"}

	corners := [][2]int{{0, 0}, {0, l.Cols() - 1}, {l.Rows() - 1, 0}, {l.Rows() - 1, l.Cols() - 1}}
	dims := []domain.Dimension{domain.DimensionTemperature, domain.DimensionSunshine, domain.DimensionPrecipitation}
	ctx := context.Background()

	for _, rc := range corners {
		c := l.Origin.Offset(rc[0], rc[1], simulation.DefaultStep)
		for m := time.January; m <= time.December; m++ {
			day := domain.DayOfYearOf(l.Year, m, 1)
			for _, dim := range dims {
				v, err := predictor.Predict(ctx, dim, c.Latitude, c.Longitude, day)
				switch {
				case err != nil:
					p.errorf("cell (%d,%d) %s %s: %v", rc[0], rc[1], m, dim, err)
				case math.IsNaN(v) || math.IsInf(v, 0):
					p.errorf("cell (%d,%d) %s %s: non-finite value %v", rc[0], rc[1], m, dim, v)
				}
			}
		}
	}
	return p
}

// ── Phase 3: Dry run ──

func validateDryRun(predictor domain.Predictor, l domain.Layout) *phase {
	p := &phase{name: "Phase 3: Dry run (yields)"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	oracle := domain.NewWeatherOracle(predictor, 0, logger, metrics)
	sim := simulation.New(oracle, simulation.Settings{Step: simulation.DefaultStep, Year: l.Year}, logger, metrics,
		simulation.WithJitter(func(int) domain.JitterFunc { return domain.NoJitter }))

	run, err := sim.Run(context.Background(), l)
	if err != nil {
		p.errorf("simulate: %v", err)
		return p
	}

	for _, row := range run.Grid.Cells {
		for _, cell := range row {
			if cell.Crop == domain.CropNone {
				continue
			}
			for _, m := range cell.Months {
				if _, ok := m.Yield(); !ok {
					p.errorf("cell (%d,%d) %s %s: no weather resolved", cell.Row, cell.Col, cell.Crop, m.Month)
				}
			}
		}
	}
	fmt.Printf("  Dry run finished in %s\n", run.Duration)
	return p
}
