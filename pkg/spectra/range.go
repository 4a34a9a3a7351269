package spectra

import (
	"fmt"
	"math"
)

// Range is an immutable closed interval [Minimum, Maximum].
type Range struct {
	min float64
	max float64
}

// NewRange creates a range, rejecting minimum > maximum.
func NewRange(minimum, maximum float64) (Range, error) {
	if maximum < minimum {
		return Range{}, fmt.Errorf("%w: %g > %g", ErrInvalidRange, minimum, maximum)
	}
	return Range{min: minimum, max: maximum}, nil
}

// MustRange is like NewRange but panics on an inverted range.
// Intended for constants and tests.
func MustRange(minimum, maximum float64) Range {
	r, err := NewRange(minimum, maximum)
	if err != nil {
		panic(err)
	}
	return r
}

// Minimum returns the lower bound.
func (r Range) Minimum() float64 { return r.min }

// Maximum returns the upper bound.
func (r Range) Maximum() float64 { return r.max }

// Mean returns the midpoint of the range.
func (r Range) Mean() float64 { return (r.max + r.min) / 2.0 }

// Width returns Maximum - Minimum.
func (r Range) Width() float64 { return r.max - r.min }

// CompareTo returns -1 when x lies below the range, 1 when above and 0 when inside.
func (r Range) CompareTo(x float64) int {
	if r.min > x {
		return -1
	}
	if r.max < x {
		return 1
	}
	return 0
}

// Contains reports whether x lies in the range, bounds included.
func (r Range) Contains(x float64) bool {
	return r.CompareTo(x) == 0
}

// IsSuperRange reports whether r fully contains other.
func (r Range) IsSuperRange(other Range) bool {
	return r.max >= other.max && r.min <= other.min
}

// IsSubRange reports whether other fully contains r.
func (r Range) IsSubRange(other Range) bool {
	return r.max <= other.max && r.min >= other.min
}

// IsOverlapping reports whether the two ranges share at least one point.
func (r Range) IsOverlapping(other Range) bool {
	return r.max >= other.min && r.min <= other.max
}

// Equals compares bounds exactly.
func (r Range) Equals(other Range) bool {
	return r.min == other.min && r.max == other.max
}

func (r Range) String() string {
	return fmt.Sprintf("[%.9g - %.9g]", r.min, r.max)
}

// MzRange is a Range over m/z values.
type MzRange struct {
	Range
}

// NewMzRange creates an m/z range, rejecting minimum > maximum.
func NewMzRange(minMZ, maxMZ float64) (MzRange, error) {
	r, err := NewRange(minMZ, maxMZ)
	if err != nil {
		return MzRange{}, err
	}
	return MzRange{Range: r}, nil
}

func (r MzRange) String() string {
	return r.Range.String() + " m/z"
}

// ToleranceUnit selects how a tolerance value is interpreted.
type ToleranceUnit int

const (
	// PPM is parts per million of the mean.
	PPM ToleranceUnit = iota
	// DA is an absolute width in daltons.
	DA
	// MMU is an absolute width in milli-mass units (1e-3 Da).
	MMU
)

func (u ToleranceUnit) String() string {
	switch u {
	case PPM:
		return "PPM"
	case DA:
		return "DA"
	case MMU:
		return "MMU"
	default:
		return fmt.Sprintf("ToleranceUnit(%d)", int(u))
	}
}

// ToleranceType selects whether Value is a half width or a full width.
type ToleranceType int

const (
	// PlusAndMinus applies Value on each side of the mean.
	PlusAndMinus ToleranceType = iota
	// FullWidth spreads Value across the whole window.
	FullWidth
)

// Tolerance describes a mass accuracy window.
type Tolerance struct {
	Unit  ToleranceUnit
	Value float64
	Type  ToleranceType
}

// NewRangeFromTolerance returns the window of tol around mean.
func NewRangeFromTolerance(mean float64, tol Tolerance) Range {
	width := math.Abs(tol.Value)
	if tol.Type == PlusAndMinus {
		width *= 2
	}

	var half float64
	switch tol.Unit {
	case PPM:
		half = math.Abs(mean) * width / 2e6
	case MMU:
		half = width / 2e3
	default:
		half = width / 2.0
	}
	return Range{min: mean - half, max: mean + half}
}

// Within reports whether actual falls in the tolerance window around expected.
func (tol Tolerance) Within(expected, actual float64) bool {
	return NewRangeFromTolerance(expected, tol).Contains(actual)
}

func (tol Tolerance) String() string {
	prefix := "±"
	if tol.Type == FullWidth {
		prefix = ""
	}
	return fmt.Sprintf("%s%.4g %s", prefix, math.Abs(tol.Value), tol.Unit)
}
