package spectra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRange(t *testing.T) {
	r, err := NewRange(10, 20)
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.Minimum())
	assert.Equal(t, 20.0, r.Maximum())
	assert.Equal(t, 15.0, r.Mean())
	assert.Equal(t, 10.0, r.Width())
	assert.Equal(t, "[10 - 20]", r.String())

	point, err := NewRange(5, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, point.Width())

	_, err = NewRange(20, 10)
	assert.ErrorIs(t, err, ErrInvalidRange)

	assert.Panics(t, func() { MustRange(2, 1) })
}

func TestRangeContains(t *testing.T) {
	r := MustRange(10, 20)

	tests := []struct {
		x       float64
		compare int
	}{
		{9.99, -1},
		{10, 0},
		{15, 0},
		{20, 0},
		{20.01, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.compare, r.CompareTo(tt.x), "x=%v", tt.x)
		assert.Equal(t, tt.compare == 0, r.Contains(tt.x), "x=%v", tt.x)
	}
}

func TestRangeRelations(t *testing.T) {
	outer := MustRange(10, 20)
	inner := MustRange(12, 18)
	left := MustRange(5, 10)
	apart := MustRange(21, 30)

	assert.True(t, outer.IsSuperRange(inner))
	assert.False(t, inner.IsSuperRange(outer))
	assert.True(t, inner.IsSubRange(outer))
	assert.False(t, outer.IsSubRange(inner))
	assert.True(t, outer.IsSuperRange(outer))
	assert.True(t, outer.IsSubRange(outer))

	assert.True(t, outer.IsOverlapping(inner))
	assert.True(t, outer.IsOverlapping(left), "touching bounds overlap")
	assert.True(t, left.IsOverlapping(outer))
	assert.False(t, outer.IsOverlapping(apart))

	assert.True(t, outer.Equals(MustRange(10, 20)))
	assert.False(t, outer.Equals(inner))
}

func TestMzRange(t *testing.T) {
	r, err := NewMzRange(100.5, 200.25)
	require.NoError(t, err)
	assert.Equal(t, "[100.5 - 200.25] m/z", r.String())
	assert.True(t, r.Contains(150))

	_, err = NewMzRange(2, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNewRangeFromTolerance(t *testing.T) {
	tests := []struct {
		name     string
		mean     float64
		tol      Tolerance
		min, max float64
	}{
		{"ppm plus and minus", 1000, Tolerance{Unit: PPM, Value: 10}, 999.99, 1000.01},
		{"ppm full width", 1000, Tolerance{Unit: PPM, Value: 10, Type: FullWidth}, 999.995, 1000.005},
		{"da plus and minus", 500, Tolerance{Unit: DA, Value: 0.5}, 499.5, 500.5},
		{"da full width", 500, Tolerance{Unit: DA, Value: 0.5, Type: FullWidth}, 499.75, 500.25},
		{"mmu plus and minus", 500, Tolerance{Unit: MMU, Value: 5}, 499.995, 500.005},
		{"negative value", 500, Tolerance{Unit: DA, Value: -0.5}, 499.5, 500.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRangeFromTolerance(tt.mean, tt.tol)
			assert.InDelta(t, tt.min, r.Minimum(), 1e-9)
			assert.InDelta(t, tt.max, r.Maximum(), 1e-9)
			assert.InDelta(t, tt.mean, r.Mean(), 1e-9)
		})
	}
}

func TestToleranceWithin(t *testing.T) {
	tol := Tolerance{Unit: PPM, Value: 10}
	assert.True(t, tol.Within(1000, 1000.005))
	assert.False(t, tol.Within(1000, 1000.02))
	assert.Equal(t, "±10 PPM", tol.String())
	assert.Equal(t, "0.5 DA", Tolerance{Unit: DA, Value: 0.5, Type: FullWidth}.String())
}

func TestPeakEquals(t *testing.T) {
	p := Peak{MZ: 500.0, Intensity: 1000.0}

	assert.True(t, p.Equals(Peak{MZ: 500.0 + 1e-11, Intensity: 1000.0}))
	assert.False(t, p.Equals(Peak{MZ: 500.001, Intensity: 1000.0}))
	assert.False(t, p.Equals(Peak{MZ: 500.0, Intensity: 1000.001}))
	assert.True(t, FuzzyEquals(1.0, 1.0+1e-11, DefaultTolerance))
	assert.False(t, FuzzyEquals(1.0, 1.001, DefaultTolerance))
}
