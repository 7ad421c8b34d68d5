package config

import (
	"os"
	"strconv"

	"gohypo/internal/errors"
)

// Config holds the tunable defaults for the fitting and search engine. Values
// are sourced from the environment so the CLI and any embedding service share
// one source of truth for engine-wide defaults.
type Config struct {
	IPF     IPFConfig
	BP      BPConfig
	Search  SearchConfig
	Logging LoggingConfig
}

// IPFConfig controls the Iterative Proportional Fitting loop (§4.5).
type IPFConfig struct {
	MaxIterations         int
	ConvergenceThreshold  float64
	ProgressInterval      int
	RaiseOnNonConvergence bool
}

// BPConfig controls the belief-propagation fitter (§4.6).
type BPConfig struct {
	Normalize bool
	Strict    bool // raise on NaN/Inf instead of returning a degraded result
}

// SearchConfig controls the default beam-search driver shape (§4.10).
type SearchConfig struct {
	BeamWidth      int
	MaxLevels      int
	Parallel       bool
	MaxWorkers     int
	ModelBatchSize int
}

// LoggingConfig controls verbosity of the internal logger.
type LoggingConfig struct {
	Level string
}

// Load reads configuration from environment variables, falling back to
// defaults tuned for the calibration models in the test suite.
func Load() (*Config, error) {
	cfg := &Config{
		IPF:     loadIPFConfig(),
		BP:      loadBPConfig(),
		Search:  loadSearchConfig(),
		Logging: loadLoggingConfig(),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

// Default returns the built-in defaults without consulting the environment.
func Default() *Config {
	return &Config{
		IPF: IPFConfig{
			MaxIterations:         100,
			ConvergenceThreshold:  1e-6,
			ProgressInterval:      10,
			RaiseOnNonConvergence: false,
		},
		BP: BPConfig{
			Normalize: true,
			Strict:    false,
		},
		Search: SearchConfig{
			BeamWidth:      3,
			MaxLevels:      5,
			Parallel:       true,
			MaxWorkers:     0, // not read by internal/search, which starts one goroutine per seed
			ModelBatchSize: 16,
		},
		Logging: LoggingConfig{Level: "INFO"},
	}
}

func loadIPFConfig() IPFConfig {
	d := Default().IPF
	return IPFConfig{
		MaxIterations:         getEnvIntOrDefault("IPF_MAX_ITERATIONS", d.MaxIterations),
		ConvergenceThreshold:  getEnvFloatOrDefault("IPF_CONVERGENCE_THRESHOLD", d.ConvergenceThreshold),
		ProgressInterval:      getEnvIntOrDefault("IPF_PROGRESS_INTERVAL", d.ProgressInterval),
		RaiseOnNonConvergence: getEnvBoolOrDefault("IPF_RAISE_ON_NONCONVERGENCE", d.RaiseOnNonConvergence),
	}
}

func loadBPConfig() BPConfig {
	d := Default().BP
	return BPConfig{
		Normalize: getEnvBoolOrDefault("BP_NORMALIZE", d.Normalize),
		Strict:    getEnvBoolOrDefault("BP_STRICT", d.Strict),
	}
}

func loadSearchConfig() SearchConfig {
	d := Default().Search
	return SearchConfig{
		BeamWidth:      getEnvIntOrDefault("SEARCH_BEAM_WIDTH", d.BeamWidth),
		MaxLevels:      getEnvIntOrDefault("SEARCH_MAX_LEVELS", d.MaxLevels),
		Parallel:       getEnvBoolOrDefault("SEARCH_PARALLEL", d.Parallel),
		MaxWorkers:     getEnvIntOrDefault("SEARCH_MAX_WORKERS", d.MaxWorkers),
		ModelBatchSize: getEnvIntOrDefault("SEARCH_MODEL_BATCH_SIZE", d.ModelBatchSize),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")}
}

func validateConfig(cfg *Config) error {
	if cfg.IPF.MaxIterations <= 0 {
		return errors.ConfigInvalid("IPF_MAX_ITERATIONS must be > 0")
	}
	if cfg.IPF.ConvergenceThreshold <= 0 {
		return errors.ConfigInvalid("IPF_CONVERGENCE_THRESHOLD must be > 0")
	}
	if cfg.Search.BeamWidth <= 0 {
		return errors.ConfigInvalid("SEARCH_BEAM_WIDTH must be > 0")
	}
	if cfg.Search.MaxLevels <= 0 {
		return errors.ConfigInvalid("SEARCH_MAX_LEVELS must be > 0")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
