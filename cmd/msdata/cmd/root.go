// Package cmd provides CLI command implementations
package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/msdata/internal/config"
	"github.com/ChrisMcGann/msdata/internal/log"
)

// Version is reported by --version.
var Version = "0.1.0"

var (
	// Global flags
	envFile  string
	logLevel string
	noCache  bool

	// Loaded in PersistentPreRunE
	cfg config.EnvConfig
)

var logger = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:   "msdata",
	Short: "msdata - mass spectrometry scan conversion and inspection tool",
	Long: `msdata reads scans from mzML files, MSP spectral libraries and msdata
SQLite databases.

It can:
- Convert any supported input to a SQLite scan database, with peak filtering
  (m/z window, exclusion ranges, intensity cutoff, top-N, ppm recalibration)
- Summarize the scans of a file as YAML
- Extract TIC and base-peak chromatograms

Settings can also be given as MSDATA_* environment variables or in a .env file.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(chromatogramCmd)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: .env in the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides MSDATA_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not keep materialized scans in memory")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(envFile)
	if err != nil {
		return err
	}

	// Flags override environment values
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if noCache {
		cfg.CacheScans = false
	}

	logger = log.NewLoggerWithWriter(cmd.ErrOrStderr(), cfg.Format(), cfg.LogLevel)
	return nil
}
