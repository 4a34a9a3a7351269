package msdata

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChrisMcGann/msdata/pkg/chemistry"
	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

// Precursor holds the isolation and selected-ion attributes of an MSn scan.
// Zero values mean "not reported"; charge 0 is an unknown charge state.
type Precursor struct {
	ScanNumber           int    // parent scan number, 0 when unknown
	ID                   string // native ID of the parent scan
	SelectedIonMZ        float64
	SelectedIonCharge    int
	SelectedIonIntensity float64
	IsolationMZ          float64
	IsolationWidth       float64
	Dissociation         DissociationType // set DissociationUnknown when not reported
	CollisionEnergy      float64
}

// ScanInfo carries the acquisition metadata used to build a Scan.
type ScanInfo struct {
	Number        int     // 1-based, unique within a file
	MsnOrder      int     // 1 for survey scans
	RetentionTime float64 // minutes
	Polarity      Polarity
	Analyzer      MZAnalyzerType
	IsCentroid    bool
	NativeID      string
	ScanFilter    string
	InjectionTime float64 // milliseconds, 0 when unknown
	Resolution    float64
	ScanWindow    *spectra.MzRange
	Precursor     *Precursor // required to be nil for MS1
}

// Scan is one acquisition event: metadata plus the spectrum it recorded.
// Scans are immutable once built.
type Scan struct {
	info      ScanInfo
	precursor Precursor
	spectrum  *spectra.Spectrum
}

// NewScan validates info and attaches spectrum.
func NewScan(info ScanInfo, spectrum *spectra.Spectrum) (*Scan, error) {
	var errs []string

	if info.Number <= 0 {
		errs = append(errs, "scan number must be positive")
	}
	if info.MsnOrder < 1 {
		errs = append(errs, "MS order must be at least 1")
	}
	if spectrum == nil {
		errs = append(errs, "spectrum is required")
	}
	if info.MsnOrder == 1 && info.Precursor != nil {
		errs = append(errs, "MS1 scans cannot carry precursor information")
	}
	if math.IsNaN(info.RetentionTime) || math.IsInf(info.RetentionTime, 0) {
		errs = append(errs, "retention time must be finite")
	}

	if len(errs) > 0 {
		return nil, &ValidationError{
			Field:   fmt.Sprintf("Scan %d", info.Number),
			Message: strings.Join(errs, "; "),
		}
	}

	s := &Scan{info: info, spectrum: spectrum}
	if info.Precursor != nil {
		s.precursor = *info.Precursor
		s.info.Precursor = nil
	}
	return s, nil
}

func (s *Scan) Number() int                 { return s.info.Number }
func (s *Scan) MsnOrder() int               { return s.info.MsnOrder }
func (s *Scan) RetentionTime() float64      { return s.info.RetentionTime }
func (s *Scan) Polarity() Polarity          { return s.info.Polarity }
func (s *Scan) MzAnalyzer() MZAnalyzerType  { return s.info.Analyzer }
func (s *Scan) Spectrum() *spectra.Spectrum { return s.spectrum }
func (s *Scan) IsCentroid() bool            { return s.info.IsCentroid }
func (s *Scan) NativeID() string            { return s.info.NativeID }
func (s *Scan) ScanFilter() string          { return s.info.ScanFilter }
func (s *Scan) InjectionTime() float64      { return s.info.InjectionTime }
func (s *Scan) Resolution() float64         { return s.info.Resolution }
func (s *Scan) isMSn() bool                 { return s.info.MsnOrder > 1 }

// Info returns a copy of the scan metadata, precursor included.
func (s *Scan) Info() ScanInfo {
	info := s.info
	if s.isMSn() {
		p := s.precursor
		info.Precursor = &p
	}
	if info.ScanWindow != nil {
		w := *info.ScanWindow
		info.ScanWindow = &w
	}
	return info
}

// MzRange returns the acquisition window when known, otherwise the span of
// the recorded peaks.
func (s *Scan) MzRange() (spectra.MzRange, error) {
	if s.info.ScanWindow != nil {
		return *s.info.ScanWindow, nil
	}
	return s.spectrum.MzRange()
}

// PrecursorScanNumber returns the parent scan number.
func (s *Scan) PrecursorScanNumber() (int, bool) {
	if !s.isMSn() || s.precursor.ScanNumber <= 0 {
		return 0, false
	}
	return s.precursor.ScanNumber, true
}

// PrecursorID returns the native ID of the parent scan.
func (s *Scan) PrecursorID() (string, bool) {
	if !s.isMSn() || s.precursor.ID == "" {
		return "", false
	}
	return s.precursor.ID, true
}

// SelectedIonMZ returns the m/z of the ion selected for fragmentation.
func (s *Scan) SelectedIonMZ() (float64, bool) {
	if !s.isMSn() || s.precursor.SelectedIonMZ <= 0 {
		return 0, false
	}
	return s.precursor.SelectedIonMZ, true
}

// SelectedIonChargeState returns the charge of the selected ion.
func (s *Scan) SelectedIonChargeState() (int, bool) {
	if !s.isMSn() || s.precursor.SelectedIonCharge == 0 {
		return 0, false
	}
	return s.precursor.SelectedIonCharge, true
}

// SelectedIonIntensity returns the intensity of the selected ion.
func (s *Scan) SelectedIonIntensity() (float64, bool) {
	if !s.isMSn() || s.precursor.SelectedIonIntensity <= 0 {
		return 0, false
	}
	return s.precursor.SelectedIonIntensity, true
}

// SelectedIonMass returns the neutral mass of the selected ion. Both m/z and
// charge must be known.
func (s *Scan) SelectedIonMass() (float64, bool) {
	mz, ok := s.SelectedIonMZ()
	if !ok {
		return 0, false
	}
	z, ok := s.SelectedIonChargeState()
	if !ok {
		return 0, false
	}
	return chemistry.MassFromMz(mz, z), true
}

// DissociationType returns the activation method.
func (s *Scan) DissociationType() (DissociationType, bool) {
	if !s.isMSn() || s.precursor.Dissociation == DissociationUnknown {
		return DissociationUnknown, false
	}
	return s.precursor.Dissociation, true
}

// CollisionEnergy returns the reported collision energy.
func (s *Scan) CollisionEnergy() (float64, bool) {
	if !s.isMSn() || s.precursor.CollisionEnergy <= 0 {
		return 0, false
	}
	return s.precursor.CollisionEnergy, true
}

// IsolationMZ returns the center of the isolation window.
func (s *Scan) IsolationMZ() (float64, bool) {
	if !s.isMSn() || s.precursor.IsolationMZ <= 0 {
		return 0, false
	}
	return s.precursor.IsolationMZ, true
}

// IsolationWidth returns the full width of the isolation window.
func (s *Scan) IsolationWidth() (float64, bool) {
	if !s.isMSn() || s.precursor.IsolationWidth <= 0 {
		return 0, false
	}
	return s.precursor.IsolationWidth, true
}

// IsolationRange returns [center - width/2, center + width/2].
func (s *Scan) IsolationRange() (spectra.MzRange, bool) {
	center, ok := s.IsolationMZ()
	if !ok {
		return spectra.MzRange{}, false
	}
	width, ok := s.IsolationWidth()
	if !ok {
		return spectra.MzRange{}, false
	}
	r, err := spectra.NewMzRange(center-width/2, center+width/2)
	if err != nil {
		return spectra.MzRange{}, false
	}
	return r, true
}

func (s *Scan) String() string {
	return fmt.Sprintf("Scan #%d", s.info.Number)
}
