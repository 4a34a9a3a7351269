package msdata

import (
	"errors"
	"fmt"
)

// rtEpsilon widens the lower bound of time-window iteration so a scan
// recorded exactly at firstRT is not lost to rounding.
const rtEpsilon = 1e-7

// ScanIterator yields scans in ascending spectrum-number order. It is
// forward only; each File method returns a fresh iterator.
//
//	it := file.Scans()
//	for it.Next() {
//		scan := it.Scan()
//	}
//	if err := it.Err(); err != nil { ... }
type ScanIterator struct {
	file    *File
	next    int
	end     int
	minRT   float64
	maxRT   float64
	byTime  bool
	ordered bool
	current *Scan
	err     error
	done    bool
}

// Scans iterates over every scan in the file.
func (f *File) Scans() *ScanIterator {
	first, err := f.FirstSpectrumNumber()
	if err != nil {
		return failedIterator(err)
	}
	last, err := f.LastSpectrumNumber()
	if err != nil {
		return failedIterator(err)
	}
	return &ScanIterator{file: f, next: first, end: last}
}

// ScansInRange iterates over scans first..last inclusive. The bounds must
// lie inside the file.
func (f *File) ScansInRange(first, last int) *ScanIterator {
	lo, err := f.FirstSpectrumNumber()
	if err != nil {
		return failedIterator(err)
	}
	hi, err := f.LastSpectrumNumber()
	if err != nil {
		return failedIterator(err)
	}
	if first < lo || last > hi {
		return failedIterator(fmt.Errorf("%w: [%d, %d] not in [%d, %d]", ErrScanOutOfRange, first, last, lo, hi))
	}
	return &ScanIterator{file: f, next: first, end: last}
}

// ScansInTimeRange iterates over scans with firstRT <= retention time <=
// lastRT. When the reader can look up retention times, scans are assumed to
// be in acquisition order and iteration stops at the first scan past lastRT.
// Readers that return ErrNotSupported are scanned in full.
func (f *File) ScansInTimeRange(firstRT, lastRT float64) *ScanIterator {
	first, err := f.FirstSpectrumNumber()
	if err != nil {
		return failedIterator(err)
	}
	last, err := f.LastSpectrumNumber()
	if err != nil {
		return failedIterator(err)
	}

	ordered := true
	start, err := f.SpectrumNumber(firstRT - rtEpsilon)
	if err != nil {
		if !errors.Is(err, ErrNotSupported) {
			return failedIterator(fmt.Errorf("failed to find scan at %.4f min: %w", firstRT, err))
		}
		start, ordered = first, false
	}
	start = max(start, first)

	return &ScanIterator{
		file:    f,
		next:    start,
		end:     last,
		minRT:   firstRT,
		maxRT:   lastRT,
		byTime:  true,
		ordered: ordered,
	}
}

func failedIterator(err error) *ScanIterator {
	return &ScanIterator{err: err, done: true}
}

// Next advances to the next scan. It returns false when the window is
// exhausted or an error occurred.
func (it *ScanIterator) Next() bool {
	it.current = nil
	for !it.done && it.next <= it.end {
		n := it.next
		it.next++

		s, err := it.file.Scan(n)
		if err != nil {
			it.err = err
			it.done = true
			return false
		}

		if it.byTime {
			rt := s.RetentionTime()
			if rt < it.minRT {
				continue
			}
			if rt > it.maxRT {
				if !it.ordered {
					continue
				}
				it.done = true
				return false
			}
		}
		it.current = s
		return true
	}
	it.done = true
	return false
}

// Scan returns the current scan.
func (it *ScanIterator) Scan() *Scan {
	return it.current
}

// Err returns the error that stopped iteration, if any.
func (it *ScanIterator) Err() error {
	return it.err
}

// Collect drains the iterator.
func (it *ScanIterator) Collect() ([]*Scan, error) {
	var scans []*Scan
	for it.Next() {
		scans = append(scans, it.Scan())
	}
	return scans, it.Err()
}
