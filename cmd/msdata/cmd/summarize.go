package cmd

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/msdata/pkg/msdata"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize the scans of a file",
	Long:  `Print summary statistics about a file as YAML: scan count, MS level histogram, retention time and m/z ranges, and total ion current.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := openFile(args[0], msdata.WithCacheScans(false))
		if err != nil {
			return err
		}
		defer file.Close()

		summary, err := summarize(file)
		if err != nil {
			return err
		}
		return writeSummary(cmd.OutOrStdout(), summary)
	},
}

// Summary is the YAML document printed by the summarize command.
type Summary struct {
	File            string      `yaml:"file"`
	Type            string      `yaml:"type"`
	Scans           int         `yaml:"scans"`
	FirstScan       int         `yaml:"first_scan"`
	LastScan        int         `yaml:"last_scan"`
	MsLevels        map[int]int `yaml:"ms_levels"`
	EmptyScans      int         `yaml:"empty_scans,omitempty"`
	Peaks           int         `yaml:"peaks"`
	RetentionTime   *Span       `yaml:"retention_time,omitempty"`
	MZ              *Span       `yaml:"mz,omitempty"`
	TotalIonCurrent float64     `yaml:"total_ion_current"`
}

// Span is an inclusive [min, max] interval.
type Span struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (s *Span) extend(lo, hi float64) *Span {
	if s == nil {
		return &Span{Min: lo, Max: hi}
	}
	s.Min = math.Min(s.Min, lo)
	s.Max = math.Max(s.Max, hi)
	return s
}

func summarize(file *msdata.File) (Summary, error) {
	summary := Summary{
		File:     file.Name(),
		Type:     file.Type().String(),
		MsLevels: make(map[int]int),
	}

	var err error
	if summary.FirstScan, err = file.FirstSpectrumNumber(); err != nil {
		return Summary{}, err
	}
	if summary.LastScan, err = file.LastSpectrumNumber(); err != nil {
		return Summary{}, err
	}

	it := file.Scans()
	for it.Next() {
		scan := it.Scan()
		summary.Scans++
		summary.MsLevels[scan.MsnOrder()]++
		summary.RetentionTime = summary.RetentionTime.extend(scan.RetentionTime(), scan.RetentionTime())

		peaks := scan.Spectrum()
		summary.Peaks += peaks.Count()
		summary.TotalIonCurrent += peaks.TotalIonCurrent()

		r, err := peaks.MzRange()
		if err != nil {
			summary.EmptyScans++
			continue
		}
		summary.MZ = summary.MZ.extend(r.Minimum(), r.Maximum())
	}
	if err := it.Err(); err != nil {
		return Summary{}, fmt.Errorf("failed to read scans: %w", err)
	}

	return summary, nil
}

func writeSummary(w io.Writer, summary Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}
