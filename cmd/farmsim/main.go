package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/farm-yield-sim/internal/adapter/climate"
	"github.com/couchcryptid/farm-yield-sim/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/farm-yield-sim/internal/adapter/kafka"
	"github.com/couchcryptid/farm-yield-sim/internal/config"
	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	"github.com/couchcryptid/farm-yield-sim/internal/layout"
	"github.com/couchcryptid/farm-yield-sim/internal/observability"
	"github.com/couchcryptid/farm-yield-sim/internal/recorder"
	"github.com/couchcryptid/farm-yield-sim/internal/simulation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	predictor := loadPredictor(cfg, logger, metrics)
	if cfg.PredictionCacheSize > 0 {
		predictor = climate.NewCachedPredictor(predictor, cfg.PredictionCacheSize)
		logger.Info("prediction cache enabled", "size", cfg.PredictionCacheSize)
	}
	breaker := climate.NewBreaker(predictor, climate.BreakerSettings{
		Name:        "climate",
		MaxFailures: uint32(cfg.BreakerMaxFailures), //nolint:gosec // validated positive in config.Load
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, logger, metrics)
	oracle := domain.NewWeatherOracle(breaker, cfg.OracleTimeout, logger, metrics)

	sim := simulation.New(oracle, simulation.Settings{
		Step:       cfg.CellStep,
		Year:       cfg.ReferenceYear,
		MaxWorkers: cfg.RowWorkers,
	}, logger, metrics)

	// Initialize sinks (Kafka feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var sinks []simulation.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.SQLitePath != "" {
		sqlite, err := recorder.NewSQLiteRecorder(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open sqlite recorder", "error", err)
			os.Exit(1)
		}
		rec = sqlite
		sinks = append(sinks, rec)
	}

	publisher := simulation.NewPublisher(sim, sinks, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, breaker, publisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Simulate the configured farm once at startup.
	var startup sync.WaitGroup
	if cfg.FarmLayoutPath != "" {
		startup.Add(1)
		go func() {
			defer startup.Done()
			runStartupLayout(ctx, cfg.FarmLayoutPath, publisher, logger)
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	// Sinks stay open until the startup run has published.
	if err := waitGroupDone(shutdownCtx, &startup); err != nil {
		logger.Error("startup simulation did not finish before shutdown", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := rec.Close(); err != nil {
		logger.Error("recorder close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// loadPredictor returns the configured climate model, or NoModel when it is
// absent or unreadable so the service still starts and reports not ready.
func loadPredictor(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) domain.Predictor {
	if cfg.ClimateModelPath == "" {
		logger.Warn("no climate model configured, all months will be empty")
		metrics.ModelLoaded.Set(0)
		return climate.NoModel{Reason: errors.New("CLIMATE_MODEL_PATH not set")}
	}
	model, err := climate.LoadModel(cfg.ClimateModelPath)
	if err != nil {
		logger.Warn("climate model unavailable, all months will be empty", "path", cfg.ClimateModelPath, "error", err)
		metrics.ModelLoaded.Set(0)
		return climate.NoModel{Reason: err}
	}
	logger.Info("climate model loaded", "path", cfg.ClimateModelPath, "name", model.Name())
	metrics.ModelLoaded.Set(1)
	return model
}

func runStartupLayout(ctx context.Context, path string, runner *simulation.Publisher, logger *slog.Logger) {
	l, err := layout.Load(path)
	if err != nil {
		logger.Error("startup layout invalid", "path", path, "error", err)
		return
	}
	run, err := runner.Run(ctx, l)
	if err != nil {
		logger.Error("startup simulation failed", "path", path, "error", err)
		return
	}
	logger.Info("startup simulation complete", "run_id", run.ID, "rows", run.Grid.Rows, "cols", run.Grid.Cols, "duration", run.Duration)
}

// waitGroupDone waits for wg, giving up when ctx ends.
func waitGroupDone(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
