package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"alignbench/domain/compare"
	"alignbench/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Paths    PathConfig
	Stats    StatsConfig
	Compare  CompareConfig
	Server   ServerConfig
	Scoring  ScoringConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings.
// An empty URL selects the file-backed run store.
type DatabaseConfig struct {
	URL            string
	ConnectTimeout time.Duration
}

// Enabled reports whether runs are stored in postgres
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// PathConfig holds file system paths
type PathConfig struct {
	BenchmarkDir string // ground truth: <dir>/branches/<branch>/ground-truth-<kind>.json
	ResultsDir   string // raw reports and processed run records
}

// StatsConfig holds significance and test-selection settings
type StatsConfig struct {
	Alpha          float64
	Bonferroni     bool
	MinParametricN int
	NormalityAlpha float64
}

// CompareConfig names the two frameworks under comparison
type CompareConfig struct {
	FrameworkA string
	FrameworkB string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// ScoringConfig holds batch scoring settings
type ScoringConfig struct {
	Workers int
}

// CompareOptions converts the significance settings for a single comparison
func (c *Config) CompareOptions() compare.Options {
	opts := compare.DefaultOptions()
	opts.Alpha = c.Stats.Alpha
	opts.Bonferroni = c.Stats.Bonferroni
	opts.MinParametricN = c.Stats.MinParametricN
	opts.NormalityAlpha = c.Stats.NormalityAlpha
	return opts
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:            os.Getenv("DATABASE_URL"),
			ConnectTimeout: getEnvDurationOrDefault("DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Paths: PathConfig{
			BenchmarkDir: getEnvOrDefault("BENCHMARK_DIR", "benchmark"),
			ResultsDir:   getEnvOrDefault("RESULTS_DIR", "results"),
		},
		Stats: StatsConfig{
			Alpha:          getEnvFloatOrDefault("SIGNIFICANCE_ALPHA", 0.05),
			Bonferroni:     getEnvBoolOrDefault("BONFERRONI", true),
			MinParametricN: getEnvIntOrDefault("MIN_PARAMETRIC_N", 8),
			NormalityAlpha: getEnvFloatOrDefault("NORMALITY_ALPHA", 0.05),
		},
		Compare: CompareConfig{
			FrameworkA: getEnvOrDefault("FRAMEWORK_A", "cursor"),
			FrameworkB: getEnvOrDefault("FRAMEWORK_B", "claude-code"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Scoring: ScoringConfig{
			Workers: getEnvIntOrDefault("SCORE_WORKERS", 4),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Paths.BenchmarkDir == "" {
		return errors.ConfigInvalid("BENCHMARK_DIR is required")
	}
	if config.Paths.ResultsDir == "" {
		return errors.ConfigInvalid("RESULTS_DIR is required")
	}
	if config.Stats.Alpha <= 0 || config.Stats.Alpha >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("SIGNIFICANCE_ALPHA must be in (0,1), got %v", config.Stats.Alpha))
	}
	if config.Stats.NormalityAlpha <= 0 || config.Stats.NormalityAlpha >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("NORMALITY_ALPHA must be in (0,1), got %v", config.Stats.NormalityAlpha))
	}
	if config.Stats.MinParametricN < 2 {
		return errors.ConfigInvalid("MIN_PARAMETRIC_N must be at least 2")
	}
	if config.Compare.FrameworkA == "" || config.Compare.FrameworkB == "" {
		return errors.ConfigInvalid("FRAMEWORK_A and FRAMEWORK_B are required")
	}
	if config.Compare.FrameworkA == config.Compare.FrameworkB {
		return errors.ConfigInvalid("FRAMEWORK_A and FRAMEWORK_B must differ")
	}
	if config.Scoring.Workers < 1 {
		return errors.ConfigInvalid("SCORE_WORKERS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
