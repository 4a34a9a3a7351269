// Package config loads msdata settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. MSDATA_LOG_LEVEL.
const Prefix = "MSDATA"

// Default configuration values.
const (
	DefaultLogLevel        = "INFO"
	DefaultLogFormat       = LogFormatPretty
	DefaultCacheScans      = true
	DefaultCompressPeaks   = true
	DefaultTopN            = 0
	DefaultIntensityCutoff = 0.0
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// EnvConfig holds all environment-based configuration.
// Field names map to environment variables with the MSDATA_ prefix.
type EnvConfig struct {
	// LogLevel is the log verbosity level.
	// Env: MSDATA_LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: MSDATA_LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// CacheScans keeps materialized scans in memory.
	// Env: MSDATA_CACHE_SCANS (default: true)
	CacheScans bool `envconfig:"CACHE_SCANS" default:"true"`

	// CompressPeaks gzips peak blobs written to SQLite.
	// Env: MSDATA_COMPRESS_PEAKS (default: true)
	CompressPeaks bool `envconfig:"COMPRESS_PEAKS" default:"true"`

	// TopN keeps only the N most intense peaks per scan, 0 keeps all.
	// Env: MSDATA_TOP_N (default: 0)
	TopN int `envconfig:"TOP_N" default:"0"`

	// IntensityCutoff drops peaks below this percentage of the base peak.
	// Env: MSDATA_INTENSITY_CUTOFF (default: 0)
	IntensityCutoff float64 `envconfig:"INTENSITY_CUTOFF" default:"0"`

	// ModsCSV is an optional modification table (mod,massshift) used when
	// reading MSP libraries.
	// Env: MSDATA_MODS_CSV
	ModsCSV string `envconfig:"MODS_CSV"`
}

// LoadFromEnv loads configuration from MSDATA_ environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, cfg.Validate()
}

// Load reads an optional .env file and then the environment.
func Load(envPath string) (EnvConfig, error) {
	if err := LoadDotEnv(envPath); err != nil {
		return EnvConfig{}, err
	}
	return LoadFromEnv()
}

// Format returns the parsed log format.
func (c EnvConfig) Format() LogFormat {
	return LogFormat(strings.ToLower(c.LogFormat))
}

// Validate checks value ranges.
func (c EnvConfig) Validate() error {
	switch c.Format() {
	case LogFormatPretty, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q, expected pretty or json", c.LogFormat)
	}
	if c.TopN < 0 {
		return fmt.Errorf("top-n must be >= 0, got %d", c.TopN)
	}
	if c.IntensityCutoff < 0 || c.IntensityCutoff > 100 {
		return fmt.Errorf("intensity cutoff must be between 0 and 100, got %.2f", c.IntensityCutoff)
	}
	return nil
}
