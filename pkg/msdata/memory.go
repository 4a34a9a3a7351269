package msdata

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

// MemoryReader serves scans held in memory. Scans are numbered 1..n in the
// order given, and retention times must be non-decreasing.
type MemoryReader struct {
	infos []ScanInfo
	peaks []*spectra.Spectrum
	reads atomic.Int64
}

// NewMemoryReader copies the given scans. Their numbers are reassigned to
// 1..len(scans).
func NewMemoryReader(scans []*Scan) *MemoryReader {
	r := &MemoryReader{
		infos: make([]ScanInfo, len(scans)),
		peaks: make([]*spectra.Spectrum, len(scans)),
	}
	for i, s := range scans {
		info := s.Info()
		info.Number = i + 1
		r.infos[i] = info
		r.peaks[i] = s.Spectrum().Clone()
	}
	return r
}

// NewMemoryFile wraps scans in a File backed by a MemoryReader.
func NewMemoryFile(name string, scans []*Scan, opts ...Option) (*File, *MemoryReader) {
	reader := NewMemoryReader(scans)
	opts = append([]Option{WithFileType(FileTypeMemory)}, opts...)
	return NewFile(name, reader, opts...), reader
}

func (r *MemoryReader) Open() error  { return nil }
func (r *MemoryReader) Close() error { return nil }

// FirstSpectrumNumber is always 1.
func (r *MemoryReader) FirstSpectrumNumber() (int, error) {
	return 1, nil
}

// LastSpectrumNumber is the number of scans.
func (r *MemoryReader) LastSpectrumNumber() (int, error) {
	return len(r.infos), nil
}

// ReadScan builds a new Scan for n on every call.
func (r *MemoryReader) ReadScan(n int) (*Scan, error) {
	if n < 1 || n > len(r.infos) {
		return nil, fmt.Errorf("%w: %d", ErrScanNotFound, n)
	}
	r.reads.Add(1)

	return NewScan(r.infos[n-1], r.peaks[n-1].Clone())
}

// SpectrumNumber returns the first scan with retention time >= rt, or
// len+1 when every scan is earlier.
func (r *MemoryReader) SpectrumNumber(rt float64) (int, error) {
	i := sort.Search(len(r.infos), func(i int) bool {
		return r.infos[i].RetentionTime >= rt
	})
	return i + 1, nil
}

// ParentSpectrumNumber returns the precursor scan number recorded on n.
func (r *MemoryReader) ParentSpectrumNumber(n int) (int, error) {
	if n < 1 || n > len(r.infos) {
		return 0, fmt.Errorf("%w: %d", ErrScanNotFound, n)
	}
	if p := r.infos[n-1].Precursor; p != nil {
		return p.ScanNumber, nil
	}
	return 0, nil
}

// Reads returns how many scans ReadScan has materialized.
func (r *MemoryReader) Reads() int {
	return int(r.reads.Load())
}
