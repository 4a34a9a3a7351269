package msdata

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

// newTestScans builds count scans one minute apart, every third one MS1.
func newTestScans(t *testing.T, count int) []*Scan {
	t.Helper()
	scans := make([]*Scan, count)
	lastMS1 := 0
	for i := range scans {
		n := i + 1
		s, err := spectra.New([]float64{100, 200 + float64(n)}, []float64{1, float64(n)}, false)
		require.NoError(t, err)

		info := ScanInfo{Number: n, MsnOrder: 1, RetentionTime: float64(n)}
		if i%3 == 0 {
			lastMS1 = n
		} else {
			info.MsnOrder = 2
			info.Precursor = &Precursor{ScanNumber: lastMS1, SelectedIonMZ: 400, Dissociation: DissociationHCD}
		}
		scans[i], err = NewScan(info, s)
		require.NoError(t, err)
	}
	return scans
}

func TestFileCacheIdentity(t *testing.T) {
	file, reader := NewMemoryFile("run.raw", newTestScans(t, 5))

	first, err := file.Scan(3)
	require.NoError(t, err)
	second, err := file.Scan(3)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, reader.Reads())
	assert.Equal(t, 1, file.CachedScanCount())

	file.ClearCachedScans()
	assert.Equal(t, 0, file.CachedScanCount())

	third, err := file.Scan(3)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, reader.Reads())
	assert.Equal(t, first.Spectrum().Masses(), third.Spectrum().Masses())
}

func TestFileWithoutCache(t *testing.T) {
	file, reader := NewMemoryFile("run.raw", newTestScans(t, 5), WithCacheScans(false))
	assert.False(t, file.CacheScans())

	first, err := file.Scan(2)
	require.NoError(t, err)
	second, err := file.Scan(2)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, reader.Reads())
	assert.Equal(t, 0, file.CachedScanCount())
	assert.ErrorIs(t, file.LoadAllScansInMemory(), ErrCachingDisabled)
}

func TestFileLoadAllScansInMemory(t *testing.T) {
	file, reader := NewMemoryFile("run.raw", newTestScans(t, 6))

	cached, err := file.Scan(4)
	require.NoError(t, err)

	require.NoError(t, file.LoadAllScansInMemory())
	assert.Equal(t, 6, file.CachedScanCount())
	assert.Equal(t, 6, reader.Reads(), "cached slot must not be read twice")

	again, err := file.Scan(4)
	require.NoError(t, err)
	assert.Same(t, cached, again)

	require.NoError(t, file.LoadAllScansInMemory())
	assert.Equal(t, 6, reader.Reads())
}

func TestFileBoundsAndOutOfRange(t *testing.T) {
	file, _ := NewMemoryFile("run.raw", newTestScans(t, 4))

	first, err := file.FirstSpectrumNumber()
	require.NoError(t, err)
	last, err := file.LastSpectrumNumber()
	require.NoError(t, err)
	count, err := file.NumSpectra()
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 4, last)
	assert.Equal(t, 4, count)

	_, err = file.Scan(0)
	assert.ErrorIs(t, err, ErrScanOutOfRange)
	_, err = file.Scan(5)
	assert.ErrorIs(t, err, ErrScanOutOfRange)

	spectrum, err := file.Spectrum(4)
	require.NoError(t, err)
	assert.Equal(t, 204.0, spectrum.Mass(1))
}

func TestFileLifecycle(t *testing.T) {
	file, _ := NewMemoryFile("/data/run01.raw", newTestScans(t, 2))

	assert.False(t, file.IsOpen())
	_, err := file.Scan(1)
	require.NoError(t, err)
	assert.True(t, file.IsOpen(), "queries open the file implicitly")
	require.NoError(t, file.Open())

	require.NoError(t, file.Close())
	assert.False(t, file.IsOpen())
	require.NoError(t, file.Close(), "closing twice is a no-op")

	_, err = file.Scan(1)
	assert.ErrorIs(t, err, ErrFileClosed)
	_, err = file.FirstSpectrumNumber()
	assert.ErrorIs(t, err, ErrFileClosed)
	assert.ErrorIs(t, file.Open(), ErrFileClosed)
	assert.ErrorIs(t, file.Scans().Err(), ErrFileClosed)
	assert.Equal(t, 0, file.CachedScanCount())
}

func TestFileNaming(t *testing.T) {
	file, _ := NewMemoryFile("/data/run01.raw", nil)
	assert.Equal(t, "run01", file.Name())
	assert.Equal(t, "/data/run01.raw", file.Path())
	assert.Equal(t, FileTypeMemory, file.Type())
	assert.Equal(t, "run01 (Memory)", file.String())

	mzml := NewFile("sample.mzML", NewMemoryReader(nil))
	assert.Equal(t, FileTypeMzML, mzml.Type())
}

func TestFileParentSpectrumNumber(t *testing.T) {
	file, _ := NewMemoryFile("run.raw", newTestScans(t, 6))

	parent, err := file.ParentSpectrumNumber(3)
	require.NoError(t, err)
	assert.Equal(t, 1, parent)

	parent, err = file.ParentSpectrumNumber(4)
	require.NoError(t, err)
	assert.Equal(t, 0, parent, "MS1 scans have no parent")

	plain := NewFile("run.raw", &stubReader{first: 1, last: 3})
	parent, err = plain.ParentSpectrumNumber(2)
	require.NoError(t, err)
	assert.Equal(t, 0, parent)
}

func TestFileConcurrentScanMaterializesOnce(t *testing.T) {
	file, reader := NewMemoryFile("run.raw", newTestScans(t, 10))

	var wg sync.WaitGroup
	results := make([]*Scan, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := file.Scan(5)
			assert.NoError(t, err)
			results[i] = s
		}()
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 1, reader.Reads())
}

func TestFileScanNumberMismatch(t *testing.T) {
	file := NewFile("bad.raw", &stubReader{first: 1, last: 3, wrongNumber: true})

	_, err := file.Scan(2)
	assert.ErrorIs(t, err, ErrScanNumberMismatch)
	assert.Equal(t, 0, file.CachedScanCount())
}

func TestFileReaderErrors(t *testing.T) {
	openErr := errors.New("disk on fire")
	file := NewFile("broken.raw", &stubReader{openErr: openErr})

	_, err := file.Scan(1)
	assert.ErrorIs(t, err, openErr)
	assert.False(t, file.IsOpen())
}

func TestFileLogsCacheEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	file, _ := NewMemoryFile("logged.raw", newTestScans(t, 3), WithLogger(logger))

	require.NoError(t, file.LoadAllScansInMemory())
	file.ClearCachedScans()

	out := buf.String()
	assert.Contains(t, out, "allocated scan cache")
	assert.Contains(t, out, "cleared scan cache")
	assert.Contains(t, out, `"file":"logged"`)
}

// stubReader serves empty MS1 scans numbered first..last.
type stubReader struct {
	first, last int
	wrongNumber bool
	openErr     error
}

func (r *stubReader) Open() error                         { return r.openErr }
func (r *stubReader) Close() error                        { return nil }
func (r *stubReader) FirstSpectrumNumber() (int, error)   { return r.first, nil }
func (r *stubReader) LastSpectrumNumber() (int, error)    { return r.last, nil }
func (r *stubReader) SpectrumNumber(float64) (int, error) { return 0, ErrNotSupported }

func (r *stubReader) ReadScan(n int) (*Scan, error) {
	number := n
	if r.wrongNumber {
		number = n + 1
	}
	return NewScan(ScanInfo{Number: number, MsnOrder: 1, RetentionTime: float64(n)}, spectra.Empty())
}
