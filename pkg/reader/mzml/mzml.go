package mzml

import "encoding/xml"

// The subset of an mzML document that the reader needs. Everything else is
// skipped by the decoder.
type mzMLContent struct {
	XMLName xml.Name `xml:"mzML"`
	Run     run      `xml:"run"`
}

type run struct {
	ID           string       `xml:"id,attr,omitempty"`
	SpectrumList spectrumList `xml:"spectrumList"`
}

type spectrumList struct {
	Count    int        `xml:"count,attr,omitempty"`
	Spectrum []spectrum `xml:"spectrum"`
}

type spectrum struct {
	Index               int                 `xml:"index,attr"`
	ID                  string              `xml:"id,attr"`
	DefaultArrayLength  int                 `xml:"defaultArrayLength,attr"`
	CvPar               []CVParam           `xml:"cvParam"`
	ScanList            scanList            `xml:"scanList"`
	PrecursorList       []precursorList     `xml:"precursorList"`
	BinaryDataArrayList binaryDataArrayList `xml:"binaryDataArrayList"`
}

type binaryDataArrayList struct {
	Count           int               `xml:"count,attr,omitempty"`
	BinaryDataArray []binaryDataArray `xml:"binaryDataArray"`
}

type binaryDataArray struct {
	EncodedLength int       `xml:"encodedLength,attr,omitempty"`
	ArrayLength   int       `xml:"arrayLength,attr,omitempty"`
	CvPar         []CVParam `xml:"cvParam"`
	Binary        string    `xml:"binary"`
}

type scanList struct {
	Count int       `xml:"count,attr,omitempty"`
	CvPar []CVParam `xml:"cvParam"`
	Scan  []scan    `xml:"scan"`
}

type scan struct {
	CvPar          []CVParam      `xml:"cvParam"`
	ScanWindowList scanWindowList `xml:"scanWindowList"`
}

type scanWindowList struct {
	Count      int          `xml:"count,attr,omitempty"`
	ScanWindow []scanWindow `xml:"scanWindow"`
}

type scanWindow struct {
	CvPar []CVParam `xml:"cvParam"`
}

type precursorList struct {
	Count     int         `xml:"count,attr,omitempty"`
	Precursor []precursor `xml:"precursor"`
}

type precursor struct {
	SpectrumRef     string          `xml:"spectrumRef,attr,omitempty"`
	IsolationWindow isolationWindow `xml:"isolationWindow"`
	SelectedIonList selectedIonList `xml:"selectedIonList"`
	Activation      activation      `xml:"activation"`
}

type isolationWindow struct {
	CvPar []CVParam `xml:"cvParam"`
}

type selectedIonList struct {
	Count       int           `xml:"count,attr,omitempty"`
	SelectedIon []selectedIon `xml:"selectedIon"`
}

type selectedIon struct {
	CvPar []CVParam `xml:"cvParam"`
}

type activation struct {
	CvPar []CVParam `xml:"cvParam"`
}

// CVParam contains values and attributes of a mzML Controlled Vocabulary term
// (http://www.peptideatlas.org/tmp/mzML1.1.0.html)
type CVParam struct {
	Accession     string `xml:"accession,attr,omitempty"`
	Name          string `xml:"name,attr,omitempty"`
	Value         string `xml:"value,attr,omitempty"`
	UnitCvRef     string `xml:"unitCvRef,attr,omitempty"`
	UnitAccession string `xml:"unitAccession,attr,omitempty"`
	UnitName      string `xml:"unitName,attr,omitempty"`
}

// Controlled vocabulary accessions read by the reader.
const (
	accMsLevel         = "MS:1000511"
	accCentroid        = "MS:1000127"
	accPositiveScan    = "MS:1000130"
	accNegativeScan    = "MS:1000129"
	accScanStartTime   = "MS:1000016"
	accFilterString    = "MS:1000512"
	accInjectionTime   = "MS:1000927"
	accResolution      = "MS:1000011"
	accScanWindowLower = "MS:1000501"
	accScanWindowUpper = "MS:1000500"
	accIsolationTarget = "MS:1000827"
	accIsolationLower  = "MS:1000828"
	accIsolationUpper  = "MS:1000829"
	accSelectedIonMZ   = "MS:1000744"
	accChargeState     = "MS:1000041"
	accPeakIntensity   = "MS:1000042"
	accCollisionEnergy = "MS:1000045"
	accMZArray         = "MS:1000514"
	accIntensityArray  = "MS:1000515"
	acc32BitFloat      = "MS:1000521"
	acc64BitFloat      = "MS:1000523"
	accZlibCompression = "MS:1000574"
	accNoCompression   = "MS:1000576"
	unitSecond         = "UO:0000010"
	unitMinute         = "UO:0000031"
	unitMinuteObsolete = "MS:1000038"
	unitMillisecond    = "UO:0000028"
)

// find returns the first parameter with the given accession.
func find(params []CVParam, accession string) (CVParam, bool) {
	for _, cv := range params {
		if cv.Accession == accession {
			return cv, true
		}
	}
	return CVParam{}, false
}

func has(params []CVParam, accession string) bool {
	_, ok := find(params, accession)
	return ok
}
