package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the simulator.
type Metrics struct {
	SimulationsTotal   *prometheus.CounterVec // labels: outcome={success,invalid,error}
	SimulationDuration prometheus.Histogram
	RowsInFlight       prometheus.Gauge
	CellsSimulated     prometheus.Counter
	EmptyMonths        prometheus.Counter

	// Oracle metrics.
	OracleRequests *prometheus.CounterVec // labels: outcome={available,unavailable,fault}
	BreakerState   *prometheus.GaugeVec   // labels: name; 0 closed, 1 half-open, 2 open
	ModelLoaded    prometheus.Gauge

	// Sink metrics.
	PublishErrors *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all simulator metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SimulationsTotal,
		m.SimulationDuration,
		m.RowsInFlight,
		m.CellsSimulated,
		m.EmptyMonths,
		m.OracleRequests,
		m.BreakerState,
		m.ModelLoaded,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_sim",
			Name:      "simulations_total",
			Help:      "Grid simulations by outcome.",
		}, []string{"outcome"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "farm_sim",
			Name:      "simulation_duration_seconds",
			Help:      "Wall time of a complete grid simulation.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RowsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "farm_sim",
			Name:      "rows_in_flight",
			Help:      "Row tasks currently running.",
		}),
		CellsSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farm_sim",
			Name:      "cells_simulated_total",
			Help:      "Cells whose twelve months were aggregated.",
		}),
		EmptyMonths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farm_sim",
			Name:      "empty_months_total",
			Help:      "Planted cell-months for which no daily weather could be resolved.",
		}),
		OracleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_sim",
			Name:      "oracle_requests_total",
			Help:      "Daily weather forecasts by outcome.",
		}, []string{"outcome"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "farm_sim",
			Name:      "predictor_breaker_state",
			Help:      "Predictor circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"name"}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "farm_sim",
			Name:      "climate_model_loaded",
			Help:      "1 when a climate model is loaded, 0 when predictions are unavailable.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_sim",
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish a run, by sink.",
		}, []string{"sink"}),
	}
}
