package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	"github.com/couchcryptid/farm-yield-sim/internal/observability"
)

// Sink receives completed runs.
type Sink interface {
	Name() string
	Publish(ctx context.Context, run domain.Run) error
}

// PublishAll hands run to every sink. A failing sink does not stop the
// others; all failures are returned joined.
func PublishAll(ctx context.Context, run domain.Run, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Publish(ctx, run); err != nil {
			logger.Error("publish run failed", "sink", sink.Name(), "run_id", run.ID, "error", err)
			metrics.PublishErrors.WithLabelValues(sink.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		logger.Info("run published", "sink", sink.Name(), "run_id", run.ID)
	}
	return errors.Join(errs...)
}

// Publisher runs layouts and hands each completed run to its sinks.
type Publisher struct {
	sim     *Simulator
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Publisher.
func NewPublisher(sim *Simulator, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	return &Publisher{sim: sim, sinks: sinks, logger: logger, metrics: metrics}
}

// Run simulates layout and publishes the result. Sink failures are logged and
// counted by PublishAll but do not fail the run; the caller still gets the
// computed grid.
func (p *Publisher) Run(ctx context.Context, layout domain.Layout) (domain.Run, error) {
	run, err := p.sim.Run(ctx, layout)
	if err != nil {
		return domain.Run{}, err
	}
	_ = PublishAll(ctx, run, p.sinks, p.logger, p.metrics)
	return run, nil
}
