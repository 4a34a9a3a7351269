// Package spectra provides the peak, range and spectrum types used to model
// mass spectra: sorted (m/z, intensity) peak lists with binary-search queries
// and copy-producing transformations.
package spectra

import (
	"fmt"
	"math"
)

// DefaultTolerance is the absolute tolerance used for fuzzy peak equality.
const DefaultTolerance = 1e-10

// Peak represents a single m/z, intensity pair.
type Peak struct {
	MZ        float64
	Intensity float64
}

// FuzzyEquals reports whether a and b differ by less than tolerance.
func FuzzyEquals(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

// Equals compares both coordinates within DefaultTolerance.
func (p Peak) Equals(other Peak) bool {
	return FuzzyEquals(p.MZ, other.MZ, DefaultTolerance) &&
		FuzzyEquals(p.Intensity, other.Intensity, DefaultTolerance)
}

func (p Peak) String() string {
	return fmt.Sprintf("(%.4f,%.5g)", p.MZ, p.Intensity)
}
