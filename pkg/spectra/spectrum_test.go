package spectra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMasses = []float64{
		328.73795, 329.23935, 447.73849, 448.23987, 482.23792,
		482.57089, 482.90393, 500.95358, 501.28732, 501.62131,
		611.99377, 612.32806, 612.66187, 722.85217, 723.35345,
	}
	testIntensities = []float64{
		81007096.0, 28604418.0, 78353512.0, 39291696.0, 122781408.0,
		94147520.0, 44238040.0, 71198680.0, 54184096.0, 21975364.0,
		44514172.0, 43061628.0, 23599424.0, 56022696.0, 41019144.0,
	}
)

func newTestSpectrum(t *testing.T) *Spectrum {
	t.Helper()
	s, err := New(testMasses, testIntensities, true)
	require.NoError(t, err)
	return s
}

func requireSorted(t *testing.T, s *Spectrum) {
	t.Helper()
	for i := 1; i < s.Count(); i++ {
		require.LessOrEqual(t, s.Mass(i-1), s.Mass(i), "masses out of order at %d", i)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		mz          []float64
		intensities []float64
		wantErr     error
		wantCount   int
	}{
		{"matched arrays", []float64{1, 2}, []float64{3, 4}, nil, 2},
		{"empty arrays", []float64{}, []float64{}, nil, 0},
		{"nil arrays", nil, nil, nil, 0},
		{"mismatched arrays", []float64{1, 2}, []float64{3}, ErrSizeMismatch, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.mz, tt.intensities, true)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, s.Count())
		})
	}
}

func TestNewCopySemantics(t *testing.T) {
	mz := []float64{1, 2, 3}
	intensities := []float64{10, 20, 30}

	copied, err := New(mz, intensities, true)
	require.NoError(t, err)
	aliased, err := New(mz, intensities, false)
	require.NoError(t, err)

	mz[0] = 0.5
	assert.Equal(t, 1.0, copied.Mass(0))
	assert.Equal(t, 0.5, aliased.Mass(0))
}

func TestCloneIsDeep(t *testing.T) {
	mz := []float64{1, 2, 3}
	s, err := New(mz, []float64{10, 20, 30}, false)
	require.NoError(t, err)

	clone := s.Clone()
	mz[1] = 1.5
	assert.Equal(t, 2.0, clone.Mass(1))
}

func TestFromArray(t *testing.T) {
	s, err := FromArray([2][]float64{testMasses, testIntensities})
	require.NoError(t, err)
	assert.Equal(t, newTestSpectrum(t).ToArray(), s.ToArray())

	_, err = FromArray([2][]float64{{1, 2}, {1}})
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestSpectrumProperties(t *testing.T) {
	s := newTestSpectrum(t)

	assert.Equal(t, 15, s.Count())

	first, err := s.FirstMZ()
	require.NoError(t, err)
	assert.Equal(t, 328.73795, first)

	last, err := s.LastMZ()
	require.NoError(t, err)
	assert.Equal(t, 723.35345, last)

	r, err := s.MzRange()
	require.NoError(t, err)
	assert.True(t, r.Equals(MustRange(328.73795, 723.35345)))

	assert.Equal(t, testMasses, s.Masses())
	assert.Equal(t, testIntensities, s.Intensities())
	assert.Equal(t, 81007096.0, s.Intensity(0))
	assert.Equal(t, 44238040.0, s.Intensity(6))
	assert.Equal(t, 482.90393, s.Mass(6))
	assert.Equal(t, Peak{MZ: 482.90393, Intensity: 44238040.0}, s.Peak(6))
	assert.Equal(t, "[328.73795 - 723.35345] m/z (Peaks 15)", s.String())
}

func TestMassesReturnsCopy(t *testing.T) {
	s := newTestSpectrum(t)
	masses := s.Masses()
	masses[0] = 0
	assert.Equal(t, 328.73795, s.Mass(0))
}

func TestBasePeakAndTIC(t *testing.T) {
	s := newTestSpectrum(t)

	assert.Equal(t, 843998894.0, s.TotalIonCurrent())

	intensity, err := s.BasePeakIntensity()
	require.NoError(t, err)
	assert.Equal(t, 122781408.0, intensity)

	peak, err := s.BasePeak()
	require.NoError(t, err)
	assert.Equal(t, 482.23792, peak.MZ)
}

func TestBasePeakTieKeepsFirst(t *testing.T) {
	s, err := New([]float64{1, 2, 3}, []float64{5, 9, 9}, true)
	require.NoError(t, err)

	peak, err := s.BasePeak()
	require.NoError(t, err)
	assert.Equal(t, 2.0, peak.MZ)
}

func TestEmptySpectrum(t *testing.T) {
	s := Empty()

	assert.False(t, s.ContainsAnyPeaks())
	assert.False(t, s.ContainsPeak(0, math.MaxFloat64))
	assert.False(t, s.ContainsAnyPeaksWithinRange(MustRange(100, 200)))
	assert.Equal(t, 0.0, s.TotalIonCurrent())
	assert.Equal(t, "(Peaks 0)", s.String())

	_, err := s.FirstMZ()
	assert.ErrorIs(t, err, ErrEmptySpectrum)
	_, err = s.LastMZ()
	assert.ErrorIs(t, err, ErrEmptySpectrum)
	_, err = s.MzRange()
	assert.ErrorIs(t, err, ErrEmptySpectrum)
	_, err = s.BasePeak()
	assert.ErrorIs(t, err, ErrEmptySpectrum)
	_, err = s.BasePeakIntensity()
	assert.ErrorIs(t, err, ErrEmptySpectrum)
	_, err = s.ClosestPeakMZ(500)
	assert.ErrorIs(t, err, ErrEmptySpectrum)
	_, err = s.ClosestPeak(500)
	assert.ErrorIs(t, err, ErrEmptySpectrum)

	assert.Equal(t, 0, s.Extract(0, 1000).Count())
	assert.Equal(t, 0, s.FilterByMZ(0, 1000).Count())
	assert.Equal(t, 0, s.FilterByIntensity(0, math.MaxFloat64).Count())

	top, err := s.FilterByNumberOfMostIntense(0)
	require.NoError(t, err)
	assert.Equal(t, 0, top.Count())
}

func TestContainsPeak(t *testing.T) {
	s := newTestSpectrum(t)
	const mz = 448.23987

	tests := []struct {
		name     string
		min, max float64
		want     bool
	}{
		{"around peak", mz - 0.001, mz + 0.001, true},
		{"ends on peak", mz - 0.001, mz, true},
		{"starts on peak", mz, mz + 0.001, true},
		{"single point", mz, mz, true},
		{"backwards", mz + 0.001, mz - 0.001, false},
		{"no peak", 603.4243 - 0.001, 603.4243 + 0.001, false},
		{"past last peak", 800, 900, false},
		{"before first peak", 100, 200, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.ContainsPeak(tt.min, tt.max))
		})
	}

	assert.True(t, s.ContainsAnyPeaksWithinRange(MustRange(mz-0.001, mz+0.001)))
}

func TestClosestPeak(t *testing.T) {
	s := newTestSpectrum(t)

	tests := []struct {
		target float64
		want   float64
	}{
		{448, 448.23987},
		{447.9, 447.73849},
		{0, 328.73795},
		{1000, 723.35345},
		{500.95358, 500.95358},
	}

	for _, tt := range tests {
		mz, err := s.ClosestPeakMZ(tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, mz, "target %v", tt.target)

		peak, err := s.ClosestPeak(tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, peak.MZ)
	}

	peak, err := s.ClosestPeakInRange(MustRange(447.8, 448.2))
	require.NoError(t, err)
	assert.Equal(t, 448.23987, peak.MZ)
}

func TestClosestPeakTieFavorsLower(t *testing.T) {
	s, err := New([]float64{10, 20}, []float64{1, 1}, true)
	require.NoError(t, err)

	i, err := s.ClosestPeakIndex(15)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
}

func TestExtractAndFilterByMZAreComplements(t *testing.T) {
	s := newTestSpectrum(t)

	extracted := s.Extract(500, 600)
	removed := s.FilterByMZ(500, 600)

	assert.Equal(t, 3, extracted.Count())
	assert.Equal(t, 12, removed.Count())
	requireSorted(t, extracted)
	requireSorted(t, removed)

	for _, lohi := range [][2]float64{{0, 1000}, {328.73795, 328.73795}, {450, 482.57089}, {800, 900}} {
		got := s.Extract(lohi[0], lohi[1]).Count() + s.FilterByMZ(lohi[0], lohi[1]).Count()
		assert.Equal(t, s.Count(), got, "range %v", lohi)
	}

	assert.Equal(t, 3, s.ExtractRange(MustRange(500, 600)).Count())
	assert.Equal(t, 15, s.Count(), "receiver must not change")
}

func TestFilterByMZRanges(t *testing.T) {
	s := newTestSpectrum(t)

	out := s.FilterByMZRanges(MustRange(300, 330), MustRange(320, 449), MustRange(700, 800))
	assert.Equal(t, 15-4-2, out.Count())
	requireSorted(t, out)

	first, err := out.FirstMZ()
	require.NoError(t, err)
	assert.Equal(t, 482.23792, first)

	assert.Equal(t, 15, s.FilterByMZRanges().Count())
}

func TestFilterByIntensityUpperBoundExclusive(t *testing.T) {
	s := newTestSpectrum(t)

	assert.Equal(t, 1, s.FilterByIntensity(28604417, 28604419).Count())
	assert.Equal(t, 1, s.FilterByIntensity(28604418, 28604419).Count(), "lower bound inclusive")
	assert.Equal(t, 0, s.FilterByIntensity(28604417, 28604418).Count(), "upper bound exclusive")
	assert.Equal(t, 1, s.FilterByIntensityRange(MustRange(28604418, 28604419)).Count())
}

func TestFilterByNumberOfMostIntense(t *testing.T) {
	s := newTestSpectrum(t)

	top, err := s.FilterByNumberOfMostIntense(5)
	require.NoError(t, err)
	assert.Equal(t, 5, top.Count())
	requireSorted(t, top)
	assert.Equal(t, []float64{328.73795, 447.73849, 482.23792, 482.57089, 500.95358}, top.Masses())

	assert.Equal(t, testMasses, s.Masses(), "receiver must not change")
	assert.Equal(t, testIntensities, s.Intensities(), "receiver must not change")
}

func TestFilterByNumberOfMostIntenseOrder(t *testing.T) {
	s, err := New([]float64{5, 6, 7}, []float64{1, 2, 3}, true)
	require.NoError(t, err)

	top, err := s.FilterByNumberOfMostIntense(2)
	require.NoError(t, err)
	require.Equal(t, 2, top.Count())
	assert.Less(t, top.Peak(0).MZ, top.Peak(1).MZ)
	assert.Equal(t, 6.0, top.Mass(0))
	assert.Equal(t, 7.0, top.Mass(1))
}

func TestFilterByNumberOfMostIntenseBounds(t *testing.T) {
	s := newTestSpectrum(t)

	all, err := s.FilterByNumberOfMostIntense(15)
	require.NoError(t, err)
	assert.Equal(t, testMasses, all.Masses())

	_, err = s.FilterByNumberOfMostIntense(16)
	assert.ErrorIs(t, err, ErrTopNOutOfRange)
	_, err = s.FilterByNumberOfMostIntense(-1)
	assert.ErrorIs(t, err, ErrTopNOutOfRange)
}

func TestCorrectMasses(t *testing.T) {
	s := newTestSpectrum(t)

	shifted := s.CorrectMasses(func(mz float64) float64 { return mz + 1 })
	assert.Equal(t, 329.73795, shifted.Mass(0))
	assert.Equal(t, testIntensities, shifted.Intensities())
	assert.Equal(t, 328.73795, s.Mass(0), "receiver must not change")
	requireSorted(t, shifted)

	same := s.ApplyFunctionToX(func(mz float64) float64 { return mz })
	assert.Equal(t, testMasses, same.Masses())
}

func TestCorrectMassesNonMonotonic(t *testing.T) {
	s, err := New([]float64{1, 2, 3}, []float64{10, 20, 30}, true)
	require.NoError(t, err)

	mirrored := s.CorrectMasses(func(mz float64) float64 { return 10 - mz })
	assert.Equal(t, []float64{7, 8, 9}, mirrored.Masses())
	assert.Equal(t, []float64{30, 20, 10}, mirrored.Intensities())
}

func TestAll(t *testing.T) {
	s := newTestSpectrum(t)

	var seen []float64
	for i, peak := range s.All() {
		assert.Equal(t, s.Mass(i), peak.MZ)
		seen = append(seen, peak.MZ)
		if i == 3 {
			break
		}
	}
	assert.Equal(t, testMasses[:4], seen)
}

func TestIndexOutOfRangePanics(t *testing.T) {
	s := newTestSpectrum(t)
	assert.Panics(t, func() { s.Mass(15) })
	assert.Panics(t, func() { Empty().Peak(0) })
}
