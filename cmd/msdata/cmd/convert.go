package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/msdata/pkg/filter"
	"github.com/ChrisMcGann/msdata/pkg/msdata"
	"github.com/ChrisMcGann/msdata/pkg/spectra"
	"github.com/ChrisMcGann/msdata/pkg/writer/sqlite"
)

var (
	// Flags for convert command
	inputFile    string
	outputFile   string
	description  string
	topN         int
	cutoff       float64
	minIntensity float64
	minMZ        float64
	maxMZ        float64
	excludeMZ    string
	ppmShift     float64
	msLevel      int
	noCompress   bool
)

func init() {
	convertCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input file path: .mzML, .msp, .sptxt or .db (required)")
	convertCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	convertCmd.Flags().StringVar(&description, "description", "", "Free text stored in the database header")
	convertCmd.Flags().IntVar(&topN, "top-n", 0, "Keep only top N most intense peaks (0 = MSDATA_TOP_N)")
	convertCmd.Flags().Float64Var(&cutoff, "cutoff", 0, "Intensity cutoff as % of base peak (0 = MSDATA_INTENSITY_CUTOFF)")
	convertCmd.Flags().Float64Var(&minIntensity, "min-intensity", 0, "Absolute intensity threshold (0 = no threshold)")
	convertCmd.Flags().Float64Var(&minMZ, "min-mz", 0, "Lower bound of the m/z window")
	convertCmd.Flags().Float64Var(&maxMZ, "max-mz", 0, "Upper bound of the m/z window (0 = no window)")
	convertCmd.Flags().StringVar(&excludeMZ, "exclude", "", "Comma-separated m/z ranges to remove (e.g. '120-135,400:410')")
	convertCmd.Flags().Float64Var(&ppmShift, "ppm-shift", 0, "Recalibrate m/z values by this many ppm")
	convertCmd.Flags().IntVar(&msLevel, "ms-level", 0, "Only convert scans of this MS level (0 = all)")
	convertCmd.Flags().BoolVar(&noCompress, "no-compress", false, "Store peak blobs uncompressed (overrides MSDATA_COMPRESS_PEAKS)")

	convertCmd.MarkFlagRequired("in")
	convertCmd.MarkFlagRequired("out")
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert scans to a SQLite database",
	Long: `Convert the scans of an mzML file, MSP library or existing scan database into
a SQLite scan database, optionally filtering peaks on the way.

Examples:
  # Convert an mzML run with default settings
  msdata convert --in run01.mzML --out run01.db

  # Keep the 150 most intense MS2 peaks above 1% of the base peak
  msdata convert --in run01.mzML --out ms2.db --ms-level 2 --top-n 150 --cutoff 1

  # Convert a library, dropping the TMT reporter region
  msdata convert --in library.msp --out library.db --exclude 126-135`,
	RunE: runConvert,
}

// filterConfig builds the peak filter from flags, falling back to config.
func filterConfig() (*filter.Config, error) {
	fc := &filter.Config{
		TopN:            topN,
		IntensityCutoff: cutoff,
		MinIntensity:    minIntensity,
		PPMShift:        ppmShift,
	}
	if fc.TopN == 0 {
		fc.TopN = cfg.TopN
	}
	if fc.IntensityCutoff == 0 {
		fc.IntensityCutoff = cfg.IntensityCutoff
	}

	if maxMZ > 0 {
		window, err := spectra.NewRange(minMZ, maxMZ)
		if err != nil {
			return nil, fmt.Errorf("invalid m/z window: %w", err)
		}
		fc.MzWindow = &window
	}

	if excludeMZ != "" {
		ranges, err := filter.ParseRanges(excludeMZ)
		if err != nil {
			return nil, fmt.Errorf("invalid --exclude: %w", err)
		}
		fc.ExcludeRanges = ranges
	}

	return fc, fc.Validate()
}

func runConvert(cmd *cobra.Command, args []string) error {
	fc, err := filterConfig()
	if err != nil {
		return err
	}

	// Every scan is read once, so caching only costs memory.
	file, err := openFile(inputFile, msdata.WithCacheScans(false))
	if err != nil {
		return err
	}
	defer file.Close()

	compress := cfg.CompressPeaks && !noCompress
	writer, err := sqlite.NewWriter(outputFile, sqlite.Options{
		Compress:    compress,
		Description: description,
		SourceFile:  file.Path(),
		SourceType:  file.Type(),
	})
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	logger.Info().
		Str("in", inputFile).
		Str("out", outputFile).
		Stringer("type", file.Type()).
		Bool("compress", compress).
		Msg("converting")

	numbers := newRenumberer()
	skipped := 0

	it := file.Scans()
	for it.Next() {
		scan := it.Scan()
		if msLevel > 0 && scan.MsnOrder() != msLevel {
			skipped++
			continue
		}

		peaks := filter.RemoveZeroIntensityPeaks(scan.Spectrum())
		if !fc.IsZero() {
			if peaks, err = fc.Apply(peaks); err != nil {
				logger.Warn().Err(err).Int("scan", scan.Number()).Msg("failed to filter scan")
				skipped++
				continue
			}
		}

		filtered, err := msdata.NewScan(numbers.assign(scan.Info()), peaks)
		if err != nil {
			return fmt.Errorf("failed to rebuild scan %d: %w", scan.Number(), err)
		}
		if err := writer.WriteScan(filtered); err != nil {
			return fmt.Errorf("failed to write scan %d: %w", scan.Number(), err)
		}

		if count := numbers.count(); count%1000 == 0 {
			logger.Info().Int("scans", count).Msg("processed")
		}
	}

	if err := it.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Conversion complete!\n")
	fmt.Fprintf(out, "Processed: %d scans\n", numbers.count())
	if skipped > 0 {
		fmt.Fprintf(out, "Skipped: %d scans\n", skipped)
	}
	fmt.Fprintf(out, "Output: %s\n", outputFile)

	return nil
}

// renumberer numbers the written scans 1..n so the output has no gaps when
// scans are skipped. Parent references follow the new numbers and are
// cleared when the parent was not written.
type renumberer struct {
	numbers map[int]int
}

func newRenumberer() *renumberer {
	return &renumberer{numbers: make(map[int]int)}
}

// assign gives info the next output number. The source number is kept in
// NativeID when the input had none.
func (r *renumberer) assign(info msdata.ScanInfo) msdata.ScanInfo {
	source := info.Number
	info.Number = len(r.numbers) + 1
	r.numbers[source] = info.Number

	if info.NativeID == "" {
		info.NativeID = fmt.Sprintf("scan=%d", source)
	}
	if p := info.Precursor; p != nil {
		p.ScanNumber = r.numbers[p.ScanNumber]
	}
	return info
}

func (r *renumberer) count() int {
	return len(r.numbers)
}
