// Package mzml reads centroid and profile spectra from mzML documents.
//
// The whole document is decoded on Open. Spectrum numbers are the 1-based
// position of each spectrum in the spectrum list.
package mzml

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/net/html/charset"

	"github.com/ChrisMcGann/msdata/pkg/msdata"
	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

var (
	// ErrNoMzML means the document has no mzML element
	ErrNoMzML = errors.New("MzML: no mzML element found")
	// ErrUnknownUnit means the file contains a unit that the software cannot handle
	ErrUnknownUnit = errors.New("MzML: can't handle unit")
	// ErrUnsupportedArray means a binary array uses an unsupported encoding
	ErrUnsupportedArray = errors.New("MzML: unsupported binary array")
)

// Reader implements msdata.Reader over an mzML document.
type Reader struct {
	path     string
	content  *mzMLContent
	id2Index map[string]int
	rts      []float64
}

var (
	_ msdata.Reader         = (*Reader)(nil)
	_ msdata.ParentResolver = (*Reader)(nil)
)

// NewReader returns a reader for the file at path. Nothing is read until Open.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// OpenFile wraps path in an msdata.File.
func OpenFile(path string, opts ...msdata.Option) *msdata.File {
	opts = append([]msdata.Option{msdata.WithFileType(msdata.FileTypeMzML)}, opts...)
	return msdata.NewFile(path, NewReader(path), opts...)
}

// Read decodes an mzML document from r. The returned reader is already open.
func Read(r io.Reader) (*Reader, error) {
	reader := &Reader{}
	if err := reader.decode(r); err != nil {
		return nil, err
	}
	return reader, nil
}

// Open reads and decodes the file. Readers created by Read are left as is.
func (r *Reader) Open() error {
	if r.content != nil {
		return nil
	}
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("failed to open mzML file: %w", err)
	}
	defer f.Close()
	return r.decode(f)
}

func (r *Reader) decode(src io.Reader) error {
	d := xml.NewDecoder(src)
	d.CharsetReader = charset.NewReaderLabel

	// indexedmzML wraps the mzML element, so seek to it before decoding.
	var content mzMLContent
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return ErrNoMzML
		}
		if err != nil {
			return fmt.Errorf("failed to parse mzML: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "mzML" {
			continue
		}
		if err := d.DecodeElement(&content, &start); err != nil {
			return fmt.Errorf("failed to parse mzML: %w", err)
		}
		break
	}

	spectraList := content.Run.SpectrumList.Spectrum
	id2Index := make(map[string]int, len(spectraList))
	rts := make([]float64, len(spectraList))
	for i := range spectraList {
		id2Index[spectraList[i].ID] = i
		rt, err := retentionTime(&spectraList[i])
		if err != nil {
			return fmt.Errorf("spectrum %q: %w", spectraList[i].ID, err)
		}
		rts[i] = rt
	}

	r.content = &content
	r.id2Index = id2Index
	r.rts = rts
	return nil
}

// Close releases the decoded document.
func (r *Reader) Close() error {
	if r.path != "" {
		r.content = nil
		r.id2Index = nil
		r.rts = nil
	}
	return nil
}

// FirstSpectrumNumber is always 1.
func (r *Reader) FirstSpectrumNumber() (int, error) {
	return 1, nil
}

// LastSpectrumNumber returns the number of spectra in the document.
func (r *Reader) LastSpectrumNumber() (int, error) {
	return len(r.rts), nil
}

// SpectrumNumber returns the first spectrum with retention time >= rt, or
// one past the last spectrum when every spectrum is earlier. Spectra are in
// acquisition order, so the lookup is a lower-bound binary search.
func (r *Reader) SpectrumNumber(rt float64) (int, error) {
	return sort.SearchFloat64s(r.rts, rt) + 1, nil
}

// ParentSpectrumNumber resolves the spectrumRef of the first precursor of
// spectrum n. It returns 0 when no reference is given or it points outside
// the document.
func (r *Reader) ParentSpectrumNumber(n int) (int, error) {
	s, err := r.spectrum(n)
	if err != nil {
		return 0, err
	}
	p := firstPrecursor(s)
	if p == nil {
		return 0, nil
	}
	if idx, ok := r.id2Index[p.SpectrumRef]; ok {
		return idx + 1, nil
	}
	return 0, nil
}

// NativeID returns the id attribute of spectrum n.
func (r *Reader) NativeID(n int) (string, error) {
	s, err := r.spectrum(n)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

func (r *Reader) spectrum(n int) (*spectrum, error) {
	if r.content == nil || n < 1 || n > len(r.content.Run.SpectrumList.Spectrum) {
		return nil, fmt.Errorf("%w: %d", msdata.ErrScanNotFound, n)
	}
	return &r.content.Run.SpectrumList.Spectrum[n-1], nil
}

// ReadScan decodes the metadata and binary arrays of spectrum n.
func (r *Reader) ReadScan(n int) (*msdata.Scan, error) {
	s, err := r.spectrum(n)
	if err != nil {
		return nil, err
	}

	info := msdata.ScanInfo{
		Number:        n,
		MsnOrder:      1,
		RetentionTime: r.rts[n-1],
		NativeID:      s.ID,
		IsCentroid:    has(s.CvPar, accCentroid),
	}

	if cv, ok := find(s.CvPar, accMsLevel); ok {
		if info.MsnOrder, err = strconv.Atoi(cv.Value); err != nil {
			return nil, fmt.Errorf("invalid ms level in spectrum %q: %w", s.ID, err)
		}
	}
	switch {
	case has(s.CvPar, accPositiveScan):
		info.Polarity = msdata.PolarityPositive
	case has(s.CvPar, accNegativeScan):
		info.Polarity = msdata.PolarityNegative
	}

	if len(s.ScanList.Scan) > 0 {
		sc := &s.ScanList.Scan[0]
		if cv, ok := find(sc.CvPar, accFilterString); ok {
			info.ScanFilter = cv.Value
			if fields := strings.Fields(cv.Value); len(fields) > 0 {
				info.Analyzer, _ = msdata.ParseMZAnalyzerType(fields[0])
			}
		}
		if info.InjectionTime, err = floatParam(sc.CvPar, accInjectionTime); err != nil {
			return nil, err
		}
		if info.Resolution, err = floatParam(sc.CvPar, accResolution); err != nil {
			return nil, err
		}
		if windows := sc.ScanWindowList.ScanWindow; len(windows) > 0 {
			window, err := scanWindowRange(windows[0].CvPar)
			if err != nil {
				return nil, fmt.Errorf("invalid scan window in spectrum %q: %w", s.ID, err)
			}
			info.ScanWindow = window
		}
	}

	if info.MsnOrder > 1 {
		if info.Precursor, err = r.precursor(s); err != nil {
			return nil, fmt.Errorf("invalid precursor in spectrum %q: %w", s.ID, err)
		}
	}

	peaks, err := decodePeaks(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode peaks of spectrum %q: %w", s.ID, err)
	}
	return msdata.NewScan(info, peaks)
}

func (r *Reader) precursor(s *spectrum) (*msdata.Precursor, error) {
	result := &msdata.Precursor{Dissociation: msdata.DissociationUnknown}
	p := firstPrecursor(s)
	if p == nil {
		return result, nil
	}

	result.ID = p.SpectrumRef
	if idx, ok := r.id2Index[p.SpectrumRef]; ok {
		result.ScanNumber = idx + 1
	}

	var err error
	window := p.IsolationWindow.CvPar
	if result.IsolationMZ, err = floatParam(window, accIsolationTarget); err != nil {
		return nil, err
	}
	lower, err := floatParam(window, accIsolationLower)
	if err != nil {
		return nil, err
	}
	upper, err := floatParam(window, accIsolationUpper)
	if err != nil {
		return nil, err
	}
	result.IsolationWidth = lower + upper

	if ions := p.SelectedIonList.SelectedIon; len(ions) > 0 {
		ion := ions[0].CvPar
		if result.SelectedIonMZ, err = floatParam(ion, accSelectedIonMZ); err != nil {
			return nil, err
		}
		if result.SelectedIonIntensity, err = floatParam(ion, accPeakIntensity); err != nil {
			return nil, err
		}
		if cv, ok := find(ion, accChargeState); ok {
			if result.SelectedIonCharge, err = strconv.Atoi(cv.Value); err != nil {
				return nil, fmt.Errorf("invalid charge state %q: %w", cv.Value, err)
			}
		}
	}

	for _, cv := range p.Activation.CvPar {
		if d, ok := dissociationTerms[cv.Accession]; ok {
			result.Dissociation = d
			break
		}
	}
	if result.CollisionEnergy, err = floatParam(p.Activation.CvPar, accCollisionEnergy); err != nil {
		return nil, err
	}
	return result, nil
}

var dissociationTerms = map[string]msdata.DissociationType{
	"MS:1000133": msdata.DissociationCID,
	"MS:1000422": msdata.DissociationHCD,
	"MS:1002481": msdata.DissociationHCD,
	"MS:1000598": msdata.DissociationETD,
	"MS:1000250": msdata.DissociationECD,
	"MS:1000435": msdata.DissociationMPD,
	"MS:1000599": msdata.DissociationPQD,
	"MS:1000282": msdata.DissociationSA,
}

func firstPrecursor(s *spectrum) *precursor {
	for i := range s.PrecursorList {
		if len(s.PrecursorList[i].Precursor) > 0 {
			return &s.PrecursorList[i].Precursor[0]
		}
	}
	return nil
}

// retentionTime returns the scan start time in minutes, 0 when absent.
func retentionTime(s *spectrum) (float64, error) {
	if len(s.ScanList.Scan) == 0 {
		return 0, nil
	}
	cv, ok := find(s.ScanList.Scan[0].CvPar, accScanStartTime)
	if !ok {
		return 0, nil
	}
	rt, err := strconv.ParseFloat(cv.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid scan start time %q: %w", cv.Value, err)
	}
	switch cv.UnitAccession {
	case "", unitMinute, unitMinuteObsolete:
		return rt, nil
	case unitSecond:
		return rt / 60, nil
	case unitMillisecond:
		return rt / 60000, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownUnit, cv.UnitAccession)
}

// floatParam parses the value of accession, 0 when absent.
func floatParam(params []CVParam, accession string) (float64, error) {
	cv, ok := find(params, accession)
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cv.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for %s: %w", cv.Value, cv.Name, err)
	}
	return v, nil
}

func scanWindowRange(params []CVParam) (*spectra.MzRange, error) {
	if !has(params, accScanWindowLower) || !has(params, accScanWindowUpper) {
		return nil, nil
	}
	lower, err := floatParam(params, accScanWindowLower)
	if err != nil {
		return nil, err
	}
	upper, err := floatParam(params, accScanWindowUpper)
	if err != nil {
		return nil, err
	}
	window, err := spectra.NewMzRange(lower, upper)
	if err != nil {
		return nil, err
	}
	return &window, nil
}

// decodePeaks reads the m/z and intensity arrays and sorts them by m/z when
// the file stores them out of order.
func decodePeaks(s *spectrum) (*spectra.Spectrum, error) {
	var mz, intensities []float64
	for i := range s.BinaryDataArrayList.BinaryDataArray {
		a := &s.BinaryDataArrayList.BinaryDataArray[i]
		switch {
		case has(a.CvPar, accMZArray):
			values, err := decodeArray(a)
			if err != nil {
				return nil, fmt.Errorf("m/z array: %w", err)
			}
			mz = values
		case has(a.CvPar, accIntensityArray):
			values, err := decodeArray(a)
			if err != nil {
				return nil, fmt.Errorf("intensity array: %w", err)
			}
			intensities = values
		}
	}
	if mz == nil && intensities == nil {
		return spectra.Empty(), nil
	}
	if !sort.Float64sAreSorted(mz) && len(mz) == len(intensities) {
		sort.Sort(peakSorter{mz, intensities})
	}
	return spectra.New(mz, intensities, false)
}

func decodeArray(a *binaryDataArray) ([]float64, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(a.Binary))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}

	switch {
	case has(a.CvPar, accZlibCompression):
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("invalid zlib stream: %w", err)
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("invalid zlib stream: %w", err)
		}
	case has(a.CvPar, accNoCompression):
	default:
		return nil, fmt.Errorf("%w: unknown compression", ErrUnsupportedArray)
	}

	switch {
	case has(a.CvPar, acc64BitFloat):
		if len(data)%8 != 0 {
			return nil, fmt.Errorf("%w: %d bytes is not a multiple of 8", ErrUnsupportedArray, len(data))
		}
		values := make([]float64, len(data)/8)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return values, nil
	case has(a.CvPar, acc32BitFloat):
		if len(data)%4 != 0 {
			return nil, fmt.Errorf("%w: %d bytes is not a multiple of 4", ErrUnsupportedArray, len(data))
		}
		values := make([]float64, len(data)/4)
		for i := range values {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
		return values, nil
	}
	return nil, fmt.Errorf("%w: unknown value type", ErrUnsupportedArray)
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
