package msdata

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/msdata/pkg/chemistry"
	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

func testSpectrum(t *testing.T) *spectra.Spectrum {
	t.Helper()
	s, err := spectra.New([]float64{100, 200, 300}, []float64{10, 30, 20}, true)
	require.NoError(t, err)
	return s
}

func TestNewScanValidation(t *testing.T) {
	tests := []struct {
		name     string
		info     ScanInfo
		spectrum bool
	}{
		{"zero scan number", ScanInfo{Number: 0, MsnOrder: 1}, true},
		{"zero MS order", ScanInfo{Number: 1, MsnOrder: 0}, true},
		{"missing spectrum", ScanInfo{Number: 1, MsnOrder: 1}, false},
		{"MS1 with precursor", ScanInfo{Number: 1, MsnOrder: 1, Precursor: &Precursor{SelectedIonMZ: 500}}, true},
		{"NaN retention time", ScanInfo{Number: 1, MsnOrder: 1, RetentionTime: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s *spectra.Spectrum
			if tt.spectrum {
				s = testSpectrum(t)
			}
			_, err := NewScan(tt.info, s)
			require.Error(t, err)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestMS1ScanHasNoPrecursor(t *testing.T) {
	scan, err := NewScan(ScanInfo{
		Number:        7,
		MsnOrder:      1,
		RetentionTime: 1.5,
		Polarity:      PolarityPositive,
		Analyzer:      AnalyzerOrbitrap,
		IsCentroid:    true,
	}, testSpectrum(t))
	require.NoError(t, err)

	assert.Equal(t, 7, scan.Number())
	assert.Equal(t, 1, scan.MsnOrder())
	assert.Equal(t, 1.5, scan.RetentionTime())
	assert.Equal(t, PolarityPositive, scan.Polarity())
	assert.Equal(t, AnalyzerOrbitrap, scan.MzAnalyzer())
	assert.True(t, scan.IsCentroid())
	assert.Equal(t, "Scan #7", scan.String())

	_, ok := scan.PrecursorScanNumber()
	assert.False(t, ok)
	_, ok = scan.PrecursorID()
	assert.False(t, ok)
	_, ok = scan.SelectedIonMZ()
	assert.False(t, ok)
	_, ok = scan.SelectedIonChargeState()
	assert.False(t, ok)
	_, ok = scan.SelectedIonIntensity()
	assert.False(t, ok)
	_, ok = scan.SelectedIonMass()
	assert.False(t, ok)
	_, ok = scan.DissociationType()
	assert.False(t, ok)
	_, ok = scan.IsolationMZ()
	assert.False(t, ok)
	_, ok = scan.IsolationWidth()
	assert.False(t, ok)
	_, ok = scan.IsolationRange()
	assert.False(t, ok)
	_, ok = scan.CollisionEnergy()
	assert.False(t, ok)
	assert.Nil(t, scan.Info().Precursor)
}

func TestMS2ScanPrecursor(t *testing.T) {
	scan, err := NewScan(ScanInfo{
		Number:   8,
		MsnOrder: 2,
		Precursor: &Precursor{
			ScanNumber:           7,
			ID:                   "scan=7",
			SelectedIonMZ:        500.5,
			SelectedIonCharge:    2,
			SelectedIonIntensity: 1e6,
			IsolationMZ:          500.5,
			IsolationWidth:       2,
			Dissociation:         DissociationHCD,
			CollisionEnergy:      30,
		},
	}, testSpectrum(t))
	require.NoError(t, err)

	parent, ok := scan.PrecursorScanNumber()
	assert.True(t, ok)
	assert.Equal(t, 7, parent)

	id, ok := scan.PrecursorID()
	assert.True(t, ok)
	assert.Equal(t, "scan=7", id)

	mz, ok := scan.SelectedIonMZ()
	assert.True(t, ok)
	assert.Equal(t, 500.5, mz)

	z, ok := scan.SelectedIonChargeState()
	assert.True(t, ok)
	assert.Equal(t, 2, z)

	mass, ok := scan.SelectedIonMass()
	assert.True(t, ok)
	assert.InDelta(t, 2*500.5-2*chemistry.ProtonMass, mass, 1e-9)

	d, ok := scan.DissociationType()
	assert.True(t, ok)
	assert.Equal(t, DissociationHCD, d)

	r, ok := scan.IsolationRange()
	assert.True(t, ok)
	assert.Equal(t, 499.5, r.Minimum())
	assert.Equal(t, 501.5, r.Maximum())

	info := scan.Info()
	require.NotNil(t, info.Precursor)
	info.Precursor.SelectedIonMZ = 1
	mz, _ = scan.SelectedIonMZ()
	assert.Equal(t, 500.5, mz, "Info must return a copy")
}

func TestMS2ScanWithoutOptionalFields(t *testing.T) {
	scan, err := NewScan(ScanInfo{
		Number:    2,
		MsnOrder:  2,
		Precursor: &Precursor{SelectedIonMZ: 400, Dissociation: DissociationUnknown},
	}, testSpectrum(t))
	require.NoError(t, err)

	_, ok := scan.SelectedIonMZ()
	assert.True(t, ok)
	_, ok = scan.SelectedIonChargeState()
	assert.False(t, ok)
	_, ok = scan.SelectedIonMass()
	assert.False(t, ok)
	_, ok = scan.DissociationType()
	assert.False(t, ok)
	_, ok = scan.IsolationRange()
	assert.False(t, ok)
}

func TestScanMzRange(t *testing.T) {
	window := spectra.MzRange{Range: spectra.MustRange(50, 2000)}
	withWindow, err := NewScan(ScanInfo{Number: 1, MsnOrder: 1, ScanWindow: &window}, testSpectrum(t))
	require.NoError(t, err)

	r, err := withWindow.MzRange()
	require.NoError(t, err)
	assert.Equal(t, 50.0, r.Minimum())

	withoutWindow, err := NewScan(ScanInfo{Number: 1, MsnOrder: 1}, testSpectrum(t))
	require.NoError(t, err)
	r, err = withoutWindow.MzRange()
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Minimum())
	assert.Equal(t, 300.0, r.Maximum())
}

func TestEnumParsing(t *testing.T) {
	p, err := ParsePolarity("+")
	require.NoError(t, err)
	assert.Equal(t, PolarityPositive, p)
	p, err = ParsePolarity("negative")
	require.NoError(t, err)
	assert.Equal(t, PolarityNegative, p)
	_, err = ParsePolarity("sideways")
	assert.Error(t, err)

	a, err := ParseMZAnalyzerType("FT")
	require.NoError(t, err)
	assert.Equal(t, AnalyzerFTMS, a)
	a, err = ParseMZAnalyzerType(AnalyzerOrbitrap.String())
	require.NoError(t, err)
	assert.Equal(t, AnalyzerOrbitrap, a)

	for d := DissociationUnknown; d <= DissociationCI; d++ {
		parsed, err := ParseDissociationType(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
	assert.Equal(t, 5, int(DissociationHCD))
	assert.Equal(t, -1, int(DissociationUnknown))
	assert.Equal(t, "DissociationType(42)", DissociationType(42).String())

	ft, err := ParseFileType("mzml")
	require.NoError(t, err)
	assert.Equal(t, FileTypeMzML, ft)
	assert.Equal(t, FileTypeMSP, FileTypeFromExtension("/data/lib.MSP"))
	assert.Equal(t, FileTypeMSP, FileTypeFromExtension("consensus.sptxt"))
	assert.Equal(t, FileTypeSQLite, FileTypeFromExtension("out.db"))
	assert.Equal(t, FileTypeUnknown, FileTypeFromExtension("notes.txt"))
}
