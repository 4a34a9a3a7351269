// Package msdata wraps mass-spectrometer data files behind a scan cache.
//
// A File delegates all I/O to a Reader and adds the bookkeeping every
// backend shares: memoized spectrum-number bounds, an optional per-slot
// scan cache with at-most-once materialization, and forward-only scan
// iterators over index and retention-time windows.
package msdata

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

// Reader is the format-specific backend of a File.
type Reader interface {
	// Open prepares the underlying source for reading.
	Open() error
	FirstSpectrumNumber() (int, error)
	LastSpectrumNumber() (int, error)
	// ReadScan materializes scan n. Each call returns a new Scan.
	ReadScan(n int) (*Scan, error)
	// SpectrumNumber returns the first spectrum whose retention time is at
	// least rt, or ErrNotSupported.
	SpectrumNumber(rt float64) (int, error)
	Close() error
}

// ParentResolver is implemented by readers that can link MSn scans to their
// parent scan.
type ParentResolver interface {
	ParentSpectrumNumber(n int) (int, error)
}

type fileState int

const (
	stateNew fileState = iota
	stateOpen
	stateClosed
)

// Option configures a File.
type Option func(*File)

// WithCacheScans turns the scan cache on or off. Caching is on by default.
func WithCacheScans(enabled bool) Option {
	return func(f *File) { f.cacheScans = enabled }
}

// WithFileType records the backend format, reported by Type and String.
func WithFileType(t FileType) Option {
	return func(f *File) { f.fileType = t }
}

// WithLogger sets the logger used for cache and lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *File) { f.logger = logger }
}

// File is a mass-spectrometry data file with lazily materialized scans.
// All methods are safe for concurrent use.
type File struct {
	path       string
	reader     Reader
	fileType   FileType
	cacheScans bool
	logger     zerolog.Logger

	mu          sync.Mutex
	state       fileState
	first, last int
	boundsKnown bool
	scans       []*Scan
}

// NewFile wraps reader. The reader is opened on the first query or on an
// explicit Open call.
func NewFile(path string, reader Reader, opts ...Option) *File {
	f := &File{
		path:       path,
		reader:     reader,
		fileType:   FileTypeFromExtension(path),
		cacheScans: true,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With().Str("file", f.Name()).Logger()
	return f
}

// Open opens the underlying reader. Opening an open file is a no-op.
func (f *File) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensureOpen()
}

func (f *File) ensureOpen() error {
	switch f.state {
	case stateOpen:
		return nil
	case stateClosed:
		return ErrFileClosed
	}
	if err := f.reader.Open(); err != nil {
		return fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	f.state = stateOpen
	f.logger.Debug().Msg("opened")
	return nil
}

// IsOpen reports whether the file has been opened and not yet closed.
func (f *File) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == stateOpen
}

// Close releases the cache and closes the reader. Closed files cannot be
// reopened; every later query returns ErrFileClosed.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == stateClosed {
		return nil
	}
	wasOpen := f.state == stateOpen
	f.state = stateClosed
	f.scans = nil
	if !wasOpen {
		return nil
	}
	if err := f.reader.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", f.path, err)
	}
	f.logger.Debug().Msg("closed")
	return nil
}

// FirstSpectrumNumber returns the lowest spectrum number. The value is
// computed once.
func (f *File) FirstSpectrumNumber() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadBounds(); err != nil {
		return 0, err
	}
	return f.first, nil
}

// LastSpectrumNumber returns the highest spectrum number. The value is
// computed once.
func (f *File) LastSpectrumNumber() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadBounds(); err != nil {
		return 0, err
	}
	return f.last, nil
}

// NumSpectra returns last - first + 1.
func (f *File) NumSpectra() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadBounds(); err != nil {
		return 0, err
	}
	return f.last - f.first + 1, nil
}

func (f *File) loadBounds() error {
	if err := f.ensureOpen(); err != nil {
		return err
	}
	if f.boundsKnown {
		return nil
	}

	first, err := f.reader.FirstSpectrumNumber()
	if err != nil {
		return fmt.Errorf("failed to read first spectrum number: %w", err)
	}
	last, err := f.reader.LastSpectrumNumber()
	if err != nil {
		return fmt.Errorf("failed to read last spectrum number: %w", err)
	}
	f.first, f.last = first, last
	f.boundsKnown = true
	return nil
}

// Scan returns scan n. With caching on, repeated calls return the same
// *Scan until ClearCachedScans.
func (f *File) Scan(n int) (*Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scan(n)
}

func (f *File) scan(n int) (*Scan, error) {
	if err := f.loadBounds(); err != nil {
		return nil, err
	}
	if n < f.first || n > f.last {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrScanOutOfRange, n, f.first, f.last)
	}

	if !f.cacheScans {
		return f.readScan(n)
	}

	if f.scans == nil {
		f.scans = make([]*Scan, f.last-f.first+1)
		f.logger.Debug().Int("slots", len(f.scans)).Msg("allocated scan cache")
	}
	slot := n - f.first
	if cached := f.scans[slot]; cached != nil {
		return cached, nil
	}

	s, err := f.readScan(n)
	if err != nil {
		return nil, err
	}
	f.scans[slot] = s
	return s, nil
}

func (f *File) readScan(n int) (*Scan, error) {
	s, err := f.reader.ReadScan(n)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan %d: %w", n, err)
	}
	if s.Number() != n {
		return nil, fmt.Errorf("%w: asked for %d, got %d", ErrScanNumberMismatch, n, s.Number())
	}
	f.logger.Trace().Int("scan", n).Msg("materialized scan")
	return s, nil
}

// Spectrum returns the spectrum of scan n.
func (f *File) Spectrum(n int) (*spectra.Spectrum, error) {
	s, err := f.Scan(n)
	if err != nil {
		return nil, err
	}
	return s.Spectrum(), nil
}

// LoadAllScansInMemory materializes every scan that is not cached yet.
func (f *File) LoadAllScansInMemory() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.cacheScans {
		return ErrCachingDisabled
	}
	if err := f.loadBounds(); err != nil {
		return err
	}
	for n := f.first; n <= f.last; n++ {
		if _, err := f.scan(n); err != nil {
			return err
		}
	}
	f.logger.Debug().Int("scans", f.last-f.first+1).Msg("loaded all scans")
	return nil
}

// ClearCachedScans empties every cache slot. Bounds stay memoized and the
// reader stays open.
func (f *File) ClearCachedScans() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.scans == nil {
		return
	}
	clear(f.scans)
	f.logger.Debug().Msg("cleared scan cache")
}

// CachedScanCount returns the number of materialized cache slots.
func (f *File) CachedScanCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, s := range f.scans {
		if s != nil {
			count++
		}
	}
	return count
}

// CacheScans reports whether the scan cache is enabled.
func (f *File) CacheScans() bool {
	return f.cacheScans
}

// SpectrumNumber returns the first spectrum whose retention time is at
// least rt.
func (f *File) SpectrumNumber(rt float64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureOpen(); err != nil {
		return 0, err
	}
	return f.reader.SpectrumNumber(rt)
}

// ParentSpectrumNumber returns the parent scan of n, or 0 when the backend
// cannot tell.
func (f *File) ParentSpectrumNumber(n int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureOpen(); err != nil {
		return 0, err
	}

	resolver, ok := f.reader.(ParentResolver)
	if !ok {
		return 0, nil
	}
	parent, err := resolver.ParentSpectrumNumber(n)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve parent of scan %d: %w", n, err)
	}
	return parent, nil
}

// Path returns the path the file was created with.
func (f *File) Path() string {
	return f.path
}

// Name returns the base file name without its extension.
func (f *File) Name() string {
	base := filepath.Base(f.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Type returns the backend format.
func (f *File) Type() FileType {
	return f.fileType
}

func (f *File) String() string {
	return fmt.Sprintf("%s (%s)", f.Name(), f.fileType)
}
