// Package chromatogram builds intensity-versus-time traces from scans.
package chromatogram

import (
	"errors"
	"fmt"

	"github.com/ChrisMcGann/msdata/pkg/msdata"
	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

var (
	// ErrInvalidSmoothing means the smoothing window does not fit the trace.
	ErrInvalidSmoothing = errors.New("chromatogram: smoothing window out of range")
	// ErrEmpty means the chromatogram has no points.
	ErrEmpty = errors.New("chromatogram: no points")
)

// Kind selects the intensity recorded for each scan.
type Kind int

const (
	// TIC sums every peak.
	TIC Kind = iota
	// BasePeak keeps the most intense peak.
	BasePeak
)

func (k Kind) String() string {
	if k == BasePeak {
		return "BasePeak"
	}
	return "TIC"
}

// Point is one chromatogram sample.
type Point struct {
	Time      float64
	Intensity float64
}

// Chromatogram holds parallel time and intensity arrays, times ascending.
type Chromatogram struct {
	times       []float64
	intensities []float64
}

// New copies times and intensities into a chromatogram.
func New(times, intensities []float64) (*Chromatogram, error) {
	if len(times) != len(intensities) {
		return nil, fmt.Errorf("%w: %d times, %d intensities", spectra.ErrSizeMismatch, len(times), len(intensities))
	}
	return &Chromatogram{
		times:       append([]float64(nil), times...),
		intensities: append([]float64(nil), intensities...),
	}, nil
}

// FromScans drains it and records one point per scan at msLevel. An msLevel
// of 0 keeps every scan.
func FromScans(it *msdata.ScanIterator, kind Kind, msLevel int) (*Chromatogram, error) {
	c := &Chromatogram{}
	for it.Next() {
		scan := it.Scan()
		if msLevel > 0 && scan.MsnOrder() != msLevel {
			continue
		}

		var intensity float64
		switch kind {
		case BasePeak:
			// an empty scan contributes a zero point
			intensity, _ = scan.Spectrum().BasePeakIntensity()
		default:
			intensity = scan.Spectrum().TotalIonCurrent()
		}
		c.times = append(c.times, scan.RetentionTime())
		c.intensities = append(c.intensities, intensity)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("failed to build %s chromatogram: %w", kind, err)
	}
	return c, nil
}

func (c *Chromatogram) Count() int              { return len(c.times) }
func (c *Chromatogram) Time(i int) float64      { return c.times[i] }
func (c *Chromatogram) Intensity(i int) float64 { return c.intensities[i] }
func (c *Chromatogram) Times() []float64        { return append([]float64(nil), c.times...) }
func (c *Chromatogram) Intensities() []float64  { return append([]float64(nil), c.intensities...) }
func (c *Chromatogram) Point(i int) Point       { return Point{Time: c.times[i], Intensity: c.intensities[i]} }

// Apex returns the most intense point. Ties resolve to the earliest.
func (c *Chromatogram) Apex() (Point, error) {
	if len(c.times) == 0 {
		return Point{}, ErrEmpty
	}
	best := 0
	for i, intensity := range c.intensities {
		if intensity > c.intensities[best] {
			best = i
		}
	}
	return c.Point(best), nil
}

// BoxCarSmooth applies a moving average of width points to both axes. An
// even width is reduced by one. The result has Count()-points+1 samples.
func (c *Chromatogram) BoxCarSmooth(points int) (*Chromatogram, error) {
	points -= 1 - points%2
	if points <= 0 || points > len(c.times) {
		return nil, fmt.Errorf("%w: %d points for %d samples", ErrInvalidSmoothing, points, len(c.times))
	}
	return &Chromatogram{
		times:       boxCar(c.times, points),
		intensities: boxCar(c.intensities, points),
	}, nil
}

func boxCar(data []float64, points int) []float64 {
	out := make([]float64, len(data)-points+1)
	sum := 0.0
	for j := range points {
		sum += data[j]
	}
	out[0] = sum / float64(points)
	for i := 1; i < len(out); i++ {
		sum += data[i+points-1] - data[i-1]
		out[i] = sum / float64(points)
	}
	return out
}
