package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Simulation inputs.
	FarmLayoutPath   string
	ClimateModelPath string
	ReferenceYear    int
	CellStep         float64
	RowWorkers       int

	// Oracle latency bounds.
	OracleTimeout       time.Duration
	BreakerMaxFailures  int
	BreakerOpenTimeout  time.Duration
	PredictionCacheSize int // 0 disables the prediction cache

	// Result sinks.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	SQLitePath   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	oracleTimeout, err := parsePositiveDuration("ORACLE_TIMEOUT", "2s")
	if err != nil {
		return nil, err
	}
	breakerOpenTimeout, err := parsePositiveDuration("BREAKER_OPEN_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	breakerMaxFailures, err := parsePositiveInt("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("PREDICTION_CACHE_SIZE", "200000"))
	if err != nil || cacheSize < 0 {
		return nil, errors.New("invalid PREDICTION_CACHE_SIZE")
	}
	rowWorkers, err := parsePositiveInt("ROW_WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	year, err := strconv.Atoi(sharedcfg.EnvOrDefault("REFERENCE_YEAR", "2024"))
	if err != nil || year < 1 || year > 9999 {
		return nil, errors.New("invalid REFERENCE_YEAR")
	}
	step, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("CELL_STEP", "1e-5"), 64)
	if err != nil || step <= 0 {
		return nil, errors.New("invalid CELL_STEP")
	}

	brokers := parseList(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FarmLayoutPath:   os.Getenv("FARM_LAYOUT_PATH"),
		ClimateModelPath: os.Getenv("CLIMATE_MODEL_PATH"),
		ReferenceYear:    year,
		CellStep:         step,
		RowWorkers:       rowWorkers,

		OracleTimeout:       oracleTimeout,
		BreakerMaxFailures:  breakerMaxFailures,
		BreakerOpenTimeout:  breakerOpenTimeout,
		PredictionCacheSize: cacheSize,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "farm-yield-results"),
		SQLitePath:   os.Getenv("SQLITE_PATH"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
