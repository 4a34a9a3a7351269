package cmd

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/msdata/pkg/chemistry"
	"github.com/ChrisMcGann/msdata/pkg/msdata"
	"github.com/ChrisMcGann/msdata/pkg/reader/msp"
	"github.com/ChrisMcGann/msdata/pkg/reader/mzml"
	"github.com/ChrisMcGann/msdata/pkg/reader/sqlite"
)

// openFile picks a backend from the file extension. extra options are
// applied after the configured ones.
func openFile(path string, extra ...msdata.Option) (*msdata.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file does not exist: %s", path)
	}

	opts := []msdata.Option{
		msdata.WithCacheScans(cfg.CacheScans),
		msdata.WithLogger(logger),
	}
	opts = append(opts, extra...)

	var file *msdata.File
	switch t := msdata.FileTypeFromExtension(path); t {
	case msdata.FileTypeMzML:
		file = mzml.OpenFile(path, opts...)
	case msdata.FileTypeSQLite:
		file = sqlite.OpenFile(path, opts...)
	case msdata.FileTypeMSP:
		modDB, err := loadModDatabase()
		if err != nil {
			return nil, err
		}
		file = msp.OpenFile(path, modDB, opts...)
	default:
		return nil, fmt.Errorf("cannot detect format of '%s', expected .mzML, .msp, .sptxt or .db", path)
	}

	if err := file.Open(); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, nil
}

// loadModDatabase returns the default modifications plus MSDATA_MODS_CSV.
func loadModDatabase() (*chemistry.ModDatabase, error) {
	modDB := chemistry.DefaultModDatabase()
	if cfg.ModsCSV == "" {
		return modDB, nil
	}

	f, err := os.Open(cfg.ModsCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to open modification CSV: %w", err)
	}
	defer f.Close()

	if err := modDB.LoadFromCSV(f); err != nil {
		return nil, err
	}
	logger.Debug().Str("path", cfg.ModsCSV).Int("mods", modDB.Len()).Msg("loaded modifications")
	return modDB, nil
}
