// Package filter provides peak filtering and transformation pipelines over
// immutable spectra.
package filter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

// Config holds filtering configuration
type Config struct {
	MzWindow        *spectra.Range  // Keep only peaks inside this m/z window (nil = all)
	ExcludeRanges   []spectra.Range // Remove peaks inside any of these m/z ranges
	MinIntensity    float64         // Keep only peaks at or above this absolute intensity
	IntensityCutoff float64         // Keep only peaks at or above this % of base peak (0 = no cutoff)
	TopN            int             // Keep only top N most intense peaks (0 = no limit)
	PPMShift        float64         // Recalibrate m/z values by this many ppm
}

// IsZero reports whether the config leaves spectra unchanged.
func (c *Config) IsZero() bool {
	return c.MzWindow == nil && len(c.ExcludeRanges) == 0 && c.MinIntensity == 0 &&
		c.IntensityCutoff == 0 && c.TopN == 0 && c.PPMShift == 0
}

// Validate checks the configuration for values no spectrum could satisfy.
func (c *Config) Validate() error {
	if c.TopN < 0 {
		return fmt.Errorf("top-N must not be negative, got %d", c.TopN)
	}
	if c.IntensityCutoff < 0 || c.IntensityCutoff > 100 {
		return fmt.Errorf("intensity cutoff must be a percentage in [0, 100], got %g", c.IntensityCutoff)
	}
	if c.MinIntensity < 0 {
		return fmt.Errorf("minimum intensity must not be negative, got %g", c.MinIntensity)
	}
	return nil
}

// Apply runs the configured filters and returns a new spectrum. The order is
// m/z window, exclusions, intensity thresholds, top-N, then recalibration.
func (c *Config) Apply(spec *spectra.Spectrum) (*spectra.Spectrum, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	out := spec
	if c.MzWindow != nil {
		out = out.ExtractRange(*c.MzWindow)
	}
	if len(c.ExcludeRanges) > 0 {
		out = out.FilterByMZRanges(c.ExcludeRanges...)
	}

	if threshold := c.intensityThreshold(out); threshold > 0 {
		out = out.FilterByIntensity(threshold, math.Inf(1))
	}

	if c.TopN > 0 && out.Count() > c.TopN {
		var err error
		out, err = out.FilterByNumberOfMostIntense(c.TopN)
		if err != nil {
			return nil, fmt.Errorf("failed to select top %d peaks: %w", c.TopN, err)
		}
	}

	if c.PPMShift != 0 {
		factor := 1 + c.PPMShift/1e6
		out = out.CorrectMasses(func(mz float64) float64 { return mz * factor })
	}

	if out == spec {
		out = spec.Clone()
	}
	return out, nil
}

// intensityThreshold returns the larger of MinIntensity and the base peak
// cutoff.
func (c *Config) intensityThreshold(spec *spectra.Spectrum) float64 {
	threshold := c.MinIntensity
	if c.IntensityCutoff > 0 {
		if base, err := spec.BasePeakIntensity(); err == nil {
			threshold = max(threshold, c.IntensityCutoff/100.0*base)
		}
	}
	return threshold
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(spec *spectra.Spectrum) *spectra.Spectrum {
	return spec.FilterByIntensity(math.SmallestNonzeroFloat64, math.Inf(1))
}

var rangePattern = regexp.MustCompile(`^\s*(-?[\d.]+(?:[eE][-+]?\d+)?)\s*[-:]\s*(-?[\d.]+(?:[eE][-+]?\d+)?)\s*$`)

// ParseRange parses "min-max" or "min:max" into a range.
func ParseRange(s string) (spectra.Range, error) {
	matches := rangePattern.FindStringSubmatch(s)
	if matches == nil {
		return spectra.Range{}, fmt.Errorf("invalid range '%s', expected 'min-max'", s)
	}

	lo, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return spectra.Range{}, fmt.Errorf("invalid range minimum in '%s': %w", s, err)
	}
	hi, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return spectra.Range{}, fmt.Errorf("invalid range maximum in '%s': %w", s, err)
	}
	return spectra.NewRange(lo, hi)
}

// ParseRanges parses a comma-separated list of ranges, e.g. "100-120,400-410".
func ParseRanges(s string) ([]spectra.Range, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var ranges []spectra.Range
	for _, part := range strings.Split(s, ",") {
		r, err := ParseRange(part)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}
