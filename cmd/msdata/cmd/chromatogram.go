package cmd

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/msdata/pkg/chromatogram"
	"github.com/ChrisMcGann/msdata/pkg/msdata"
)

var (
	// Flags for chromatogram command
	smoothPoints int
	basePeak     bool
	rtMin        float64
	rtMax        float64
	traceLevel   int
)

func init() {
	chromatogramCmd.Flags().IntVar(&smoothPoints, "smooth", 0, "Box-car smoothing width in points (0 = no smoothing)")
	chromatogramCmd.Flags().BoolVar(&basePeak, "base-peak", false, "Trace the base peak instead of the total ion current")
	chromatogramCmd.Flags().Float64Var(&rtMin, "rt-min", 0, "First retention time in minutes")
	chromatogramCmd.Flags().Float64Var(&rtMax, "rt-max", math.Inf(1), "Last retention time in minutes")
	chromatogramCmd.Flags().IntVar(&traceLevel, "ms-level", 1, "MS level to trace (0 = all)")
}

var chromatogramCmd = &cobra.Command{
	Use:   "chromatogram [file]",
	Short: "Print a TIC or base-peak chromatogram",
	Long: `Print the total ion current or base-peak chromatogram of a file as
tab-separated retention time and intensity columns.

Examples:
  msdata chromatogram run01.mzML --smooth 5
  msdata chromatogram run01.db --base-peak --rt-min 10 --rt-max 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := openFile(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		trace, err := buildChromatogram(file)
		if err != nil {
			return err
		}
		return writeChromatogram(cmd.OutOrStdout(), trace)
	},
}

func buildChromatogram(file *msdata.File) (*chromatogram.Chromatogram, error) {
	kind := chromatogram.TIC
	if basePeak {
		kind = chromatogram.BasePeak
	}

	it := file.Scans()
	if rtMin > 0 || !math.IsInf(rtMax, 1) {
		it = file.ScansInTimeRange(rtMin, rtMax)
	}

	trace, err := chromatogram.FromScans(it, kind, traceLevel)
	if err != nil {
		return nil, err
	}
	logger.Debug().Stringer("kind", kind).Int("points", trace.Count()).Msg("built chromatogram")

	if smoothPoints > 1 {
		if trace, err = trace.BoxCarSmooth(smoothPoints); err != nil {
			return nil, fmt.Errorf("failed to smooth chromatogram: %w", err)
		}
	}
	return trace, nil
}

func writeChromatogram(w io.Writer, trace *chromatogram.Chromatogram) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "rt\tintensity\n")
	for i := 0; i < trace.Count(); i++ {
		fmt.Fprintf(bw, "%.4f\t%.2f\n", trace.Time(i), trace.Intensity(i))
	}
	return bw.Flush()
}
