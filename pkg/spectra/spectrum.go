package spectra

import (
	"fmt"
	"iter"
	"slices"
	"sort"
)

// Spectrum is a list of peaks held as two parallel arrays, masses sorted
// ascending. Callers must supply sorted m/z values; the order is not
// re-validated on each query.
//
// A Spectrum is never modified after construction. Every transformation
// returns a new Spectrum, so values can be shared between goroutines.
type Spectrum struct {
	masses      []float64
	intensities []float64
}

// New creates a spectrum from parallel m/z and intensity arrays. When
// shouldCopy is false the arrays are used in place and must not be modified
// by the caller afterwards.
func New(mz, intensities []float64, shouldCopy bool) (*Spectrum, error) {
	if len(mz) != len(intensities) {
		return nil, fmt.Errorf("%w: %d m/z values, %d intensities", ErrSizeMismatch, len(mz), len(intensities))
	}
	if shouldCopy {
		mz = cloneFloats(mz)
		intensities = cloneFloats(intensities)
	}
	return &Spectrum{masses: mz, intensities: intensities}, nil
}

// Empty returns a spectrum without peaks.
func Empty() *Spectrum {
	return &Spectrum{masses: []float64{}, intensities: []float64{}}
}

// FromArray creates a spectrum from a two-row array: row 0 holds m/z values
// and row 1 intensities. The rows are copied.
func FromArray(data [2][]float64) (*Spectrum, error) {
	return New(data[0], data[1], true)
}

// Clone returns a deep copy.
func (s *Spectrum) Clone() *Spectrum {
	return &Spectrum{masses: cloneFloats(s.masses), intensities: cloneFloats(s.intensities)}
}

// Count returns the number of peaks.
func (s *Spectrum) Count() int {
	return len(s.masses)
}

// Mass returns the m/z at index i. It panics if i is out of range.
func (s *Spectrum) Mass(i int) float64 {
	return s.masses[i]
}

// Intensity returns the intensity at index i. It panics if i is out of range.
func (s *Spectrum) Intensity(i int) float64 {
	return s.intensities[i]
}

// Peak returns the peak at index i. It panics if i is out of range.
func (s *Spectrum) Peak(i int) Peak {
	return Peak{MZ: s.masses[i], Intensity: s.intensities[i]}
}

// Masses returns a copy of the m/z array.
func (s *Spectrum) Masses() []float64 {
	return cloneFloats(s.masses)
}

// Intensities returns a copy of the intensity array.
func (s *Spectrum) Intensities() []float64 {
	return cloneFloats(s.intensities)
}

// ToArray returns copies of both arrays as a two-row array.
func (s *Spectrum) ToArray() [2][]float64 {
	return [2][]float64{s.Masses(), s.Intensities()}
}

// All iterates over the peaks in m/z order.
func (s *Spectrum) All() iter.Seq2[int, Peak] {
	return func(yield func(int, Peak) bool) {
		for i := range s.masses {
			if !yield(i, s.Peak(i)) {
				return
			}
		}
	}
}

// FirstMZ returns the lowest m/z.
func (s *Spectrum) FirstMZ() (float64, error) {
	if len(s.masses) == 0 {
		return 0, ErrEmptySpectrum
	}
	return s.masses[0], nil
}

// LastMZ returns the highest m/z.
func (s *Spectrum) LastMZ() (float64, error) {
	if len(s.masses) == 0 {
		return 0, ErrEmptySpectrum
	}
	return s.masses[len(s.masses)-1], nil
}

// MzRange returns [FirstMZ, LastMZ].
func (s *Spectrum) MzRange() (MzRange, error) {
	if len(s.masses) == 0 {
		return MzRange{}, ErrEmptySpectrum
	}
	return NewMzRange(s.masses[0], s.masses[len(s.masses)-1])
}

// TotalIonCurrent returns the sum of all intensities.
func (s *Spectrum) TotalIonCurrent() float64 {
	total := 0.0
	for _, intensity := range s.intensities {
		total += intensity
	}
	return total
}

// basePeakIndex returns the index of the first maximum intensity, or -1.
func (s *Spectrum) basePeakIndex() int {
	best := -1
	for i, intensity := range s.intensities {
		if best == -1 || intensity > s.intensities[best] {
			best = i
		}
	}
	return best
}

// BasePeakIntensity returns the largest intensity.
func (s *Spectrum) BasePeakIntensity() (float64, error) {
	i := s.basePeakIndex()
	if i < 0 {
		return 0, ErrEmptySpectrum
	}
	return s.intensities[i], nil
}

// BasePeak returns the most intense peak. Ties resolve to the lowest m/z.
func (s *Spectrum) BasePeak() (Peak, error) {
	i := s.basePeakIndex()
	if i < 0 {
		return Peak{}, ErrEmptySpectrum
	}
	return s.Peak(i), nil
}

// ContainsAnyPeaks reports whether the spectrum holds at least one peak.
func (s *Spectrum) ContainsAnyPeaks() bool {
	return len(s.masses) > 0
}

// ContainsPeak reports whether any m/z lies in [minMZ, maxMZ]. A backwards
// range never matches.
func (s *Spectrum) ContainsPeak(minMZ, maxMZ float64) bool {
	i := s.peakIndex(minMZ)
	return i < len(s.masses) && s.masses[i] <= maxMZ
}

// ContainsAnyPeaksWithinRange is ContainsPeak over r.
func (s *Spectrum) ContainsAnyPeaksWithinRange(r Range) bool {
	return s.ContainsPeak(r.Minimum(), r.Maximum())
}

// peakIndex returns the index of the first m/z >= mz.
func (s *Spectrum) peakIndex(mz float64) int {
	return sort.SearchFloat64s(s.masses, mz)
}

// ClosestPeakIndex returns the index of the m/z nearest to target. When two
// neighbours are equally distant the lower one wins.
func (s *Spectrum) ClosestPeakIndex(target float64) (int, error) {
	n := len(s.masses)
	if n == 0 {
		return -1, ErrEmptySpectrum
	}

	i := s.peakIndex(target)
	if i < n && s.masses[i] == target {
		return i, nil
	}
	if i >= n {
		return n - 1, nil
	}
	if i == 0 {
		return 0, nil
	}

	lower, upper := s.masses[i-1], s.masses[i]
	if target-lower > upper-target {
		return i, nil
	}
	return i - 1, nil
}

// ClosestPeak returns the peak nearest to target.
func (s *Spectrum) ClosestPeak(target float64) (Peak, error) {
	i, err := s.ClosestPeakIndex(target)
	if err != nil {
		return Peak{}, err
	}
	return s.Peak(i), nil
}

// ClosestPeakInRange returns the peak nearest to the mean of r.
func (s *Spectrum) ClosestPeakInRange(r Range) (Peak, error) {
	return s.ClosestPeak(r.Mean())
}

// ClosestPeakMZ returns the m/z nearest to target.
func (s *Spectrum) ClosestPeakMZ(target float64) (float64, error) {
	i, err := s.ClosestPeakIndex(target)
	if err != nil {
		return 0, err
	}
	return s.masses[i], nil
}

// Extract returns the peaks with m/z in [minMZ, maxMZ].
func (s *Spectrum) Extract(minMZ, maxMZ float64) *Spectrum {
	start := s.peakIndex(minMZ)
	end := start
	for end < len(s.masses) && s.masses[end] <= maxMZ {
		end++
	}
	return &Spectrum{
		masses:      cloneFloats(s.masses[start:end]),
		intensities: cloneFloats(s.intensities[start:end]),
	}
}

// ExtractRange is Extract over r.
func (s *Spectrum) ExtractRange(r Range) *Spectrum {
	return s.Extract(r.Minimum(), r.Maximum())
}

// FilterByIntensity keeps peaks with intensity in [minIntensity, maxIntensity).
// The upper bound is exclusive, unlike the m/z filters.
func (s *Spectrum) FilterByIntensity(minIntensity, maxIntensity float64) *Spectrum {
	mz := make([]float64, 0, len(s.masses))
	intensities := make([]float64, 0, len(s.masses))
	for i, intensity := range s.intensities {
		if intensity >= minIntensity && intensity < maxIntensity {
			mz = append(mz, s.masses[i])
			intensities = append(intensities, intensity)
		}
	}
	return &Spectrum{masses: mz, intensities: intensities}
}

// FilterByIntensityRange is FilterByIntensity over r, upper bound exclusive.
func (s *Spectrum) FilterByIntensityRange(r Range) *Spectrum {
	return s.FilterByIntensity(r.Minimum(), r.Maximum())
}

// FilterByMZ removes the peaks with m/z in [minMZ, maxMZ].
func (s *Spectrum) FilterByMZ(minMZ, maxMZ float64) *Spectrum {
	return s.removeWindows([][2]float64{{minMZ, maxMZ}})
}

// FilterByMZRanges removes the peaks falling in any of the ranges.
func (s *Spectrum) FilterByMZRanges(ranges ...Range) *Spectrum {
	windows := make([][2]float64, len(ranges))
	for i, r := range ranges {
		windows[i] = [2]float64{r.Minimum(), r.Maximum()}
	}
	return s.removeWindows(windows)
}

func (s *Spectrum) removeWindows(windows [][2]float64) *Spectrum {
	n := len(s.masses)
	remove := make([]bool, n)
	removed := 0
	for _, w := range windows {
		for i := s.peakIndex(w[0]); i < n && s.masses[i] <= w[1]; i++ {
			if !remove[i] {
				remove[i] = true
				removed++
			}
		}
	}

	mz := make([]float64, 0, n-removed)
	intensities := make([]float64, 0, n-removed)
	for i := range n {
		if remove[i] {
			continue
		}
		mz = append(mz, s.masses[i])
		intensities = append(intensities, s.intensities[i])
	}
	return &Spectrum{masses: mz, intensities: intensities}
}

// FilterByNumberOfMostIntense keeps the topN most intense peaks, returned in
// m/z order. Equal intensities keep the lower m/z first. topN must lie in
// [0, Count()].
func (s *Spectrum) FilterByNumberOfMostIntense(topN int) (*Spectrum, error) {
	n := len(s.masses)
	if topN < 0 || topN > n {
		return nil, fmt.Errorf("%w: requested %d of %d peaks", ErrTopNOutOfRange, topN, n)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.intensities[order[a]] > s.intensities[order[b]]
	})

	keep := order[:topN]
	slices.Sort(keep)
	return s.selectIndices(keep), nil
}

// CorrectMasses returns a copy with every m/z mapped through convert.
// Intensities are unchanged. If convert does not preserve order the peaks
// are re-sorted by the new m/z values.
func (s *Spectrum) CorrectMasses(convert func(float64) float64) *Spectrum {
	mz := make([]float64, len(s.masses))
	for i, m := range s.masses {
		mz[i] = convert(m)
	}
	out := &Spectrum{masses: mz, intensities: cloneFloats(s.intensities)}
	if sort.Float64sAreSorted(mz) {
		return out
	}

	order := make([]int, len(mz))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return mz[order[a]] < mz[order[b]]
	})
	return out.selectIndices(order)
}

// ApplyFunctionToX is CorrectMasses.
func (s *Spectrum) ApplyFunctionToX(convert func(float64) float64) *Spectrum {
	return s.CorrectMasses(convert)
}

func (s *Spectrum) selectIndices(indices []int) *Spectrum {
	mz := make([]float64, len(indices))
	intensities := make([]float64, len(indices))
	for j, i := range indices {
		mz[j] = s.masses[i]
		intensities[j] = s.intensities[i]
	}
	return &Spectrum{masses: mz, intensities: intensities}
}

func (s *Spectrum) String() string {
	r, err := s.MzRange()
	if err != nil {
		return "(Peaks 0)"
	}
	return fmt.Sprintf("%s (Peaks %d)", r, s.Count())
}

func cloneFloats(src []float64) []float64 {
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}
