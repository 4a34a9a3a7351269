package msp

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ChrisMcGann/msdata/pkg/chemistry"
	"github.com/ChrisMcGann/msdata/pkg/msdata"
)

// Reader implements msdata.Reader over an MSP library. Entry i (0-based) is
// scan i+1. Library entries carry no acquisition order, so SpectrumNumber is
// not supported.
type Reader struct {
	path    string
	modDB   *chemistry.ModDatabase
	entries []*Entry
	loaded  bool
}

var _ msdata.Reader = (*Reader)(nil)

// NewReader returns a reader for the library at path. A nil modDB uses the
// default database.
func NewReader(path string, modDB *chemistry.ModDatabase) *Reader {
	return &Reader{path: path, modDB: modDB}
}

// OpenFile wraps path in an msdata.File.
func OpenFile(path string, modDB *chemistry.ModDatabase, opts ...msdata.Option) *msdata.File {
	opts = append([]msdata.Option{msdata.WithFileType(msdata.FileTypeMSP)}, opts...)
	return msdata.NewFile(path, NewReader(path, modDB), opts...)
}

// Read parses a whole library from r. The returned reader is already open.
func Read(r io.Reader, modDB *chemistry.ModDatabase) (*Reader, error) {
	reader := &Reader{modDB: modDB}
	if err := reader.load(r); err != nil {
		return nil, err
	}
	return reader, nil
}

// Open parses the library file.
func (r *Reader) Open() error {
	if r.loaded {
		return nil
	}
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("failed to open MSP file: %w", err)
	}
	defer f.Close()
	return r.load(f)
}

func (r *Reader) load(src io.Reader) error {
	parser := NewParser(src, r.modDB)
	var entries []*Entry
	for parser.Next() {
		entries = append(entries, parser.Entry())
	}
	if err := parser.Err(); err != nil {
		return fmt.Errorf("failed to parse MSP library: %w", err)
	}
	r.entries = entries
	r.loaded = true
	return nil
}

// Close releases the parsed entries of a file-backed reader.
func (r *Reader) Close() error {
	if r.path != "" {
		r.entries = nil
		r.loaded = false
	}
	return nil
}

// FirstSpectrumNumber is always 1.
func (r *Reader) FirstSpectrumNumber() (int, error) {
	return 1, nil
}

// LastSpectrumNumber returns the number of entries.
func (r *Reader) LastSpectrumNumber() (int, error) {
	return len(r.entries), nil
}

// SpectrumNumber always fails with msdata.ErrNotSupported.
func (r *Reader) SpectrumNumber(float64) (int, error) {
	return 0, msdata.ErrNotSupported
}

// Entry returns library entry n (1-based).
func (r *Reader) Entry(n int) (*Entry, error) {
	if n < 1 || n > len(r.entries) {
		return nil, fmt.Errorf("%w: %d", msdata.ErrScanNotFound, n)
	}
	return r.entries[n-1], nil
}

// ReadScan converts entry n to a centroided MS2 scan. The retention time is
// the entry's iRT, 0 when absent.
func (r *Reader) ReadScan(n int) (*msdata.Scan, error) {
	entry, err := r.Entry(n)
	if err != nil {
		return nil, err
	}

	info := msdata.ScanInfo{
		Number:     n,
		MsnOrder:   2,
		IsCentroid: true,
		NativeID:   entry.Name(),
		Precursor: &msdata.Precursor{
			SelectedIonMZ:     entry.CalculatedMZ(),
			SelectedIonCharge: entry.Charge,
			IsolationMZ:       entry.CalculatedMZ(),
			Dissociation:      msdata.DissociationUnknown,
			CollisionEnergy:   entry.CollisionEnergy,
		},
	}
	if entry.RetentionTime != nil {
		info.RetentionTime = *entry.RetentionTime
	}

	return msdata.NewScan(info, entry.Spectrum.Clone())
}

// sortPeaks orders parallel peak arrays by m/z.
func sortPeaks(mz, intensities []float64) {
	if sort.Float64sAreSorted(mz) {
		return
	}
	sort.Sort(peakSorter{mz, intensities})
}

type peakSorter struct {
	mz, intensities []float64
}

func (p peakSorter) Len() int           { return len(p.mz) }
func (p peakSorter) Less(i, j int) bool { return p.mz[i] < p.mz[j] }
func (p peakSorter) Swap(i, j int) {
	p.mz[i], p.mz[j] = p.mz[j], p.mz[i]
	p.intensities[i], p.intensities[j] = p.intensities[j], p.intensities[i]
}
