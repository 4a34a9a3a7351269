package msdata

import (
	"fmt"
	"strings"
)

// Polarity is the ion polarity of a scan.
type Polarity int

const (
	PolarityUnknown Polarity = iota
	PolarityPositive
	PolarityNegative
)

var polarityNames = map[Polarity]string{
	PolarityUnknown:  "Unknown",
	PolarityPositive: "Positive",
	PolarityNegative: "Negative",
}

func (p Polarity) String() string {
	if name, ok := polarityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Polarity(%d)", int(p))
}

// ParsePolarity accepts the names produced by String as well as "+" and "-".
func ParsePolarity(s string) (Polarity, error) {
	switch strings.TrimSpace(s) {
	case "+":
		return PolarityPositive, nil
	case "-":
		return PolarityNegative, nil
	}
	return parseEnum(s, polarityNames, "polarity")
}

// MZAnalyzerType is the mass analyzer that acquired a scan.
type MZAnalyzerType int

const (
	AnalyzerUnknown MZAnalyzerType = iota
	AnalyzerQuadrupole
	AnalyzerITMS
	AnalyzerTOFMS
	AnalyzerFTMS
	AnalyzerSector
	AnalyzerOrbitrap
	AnalyzerAstral
)

var analyzerNames = map[MZAnalyzerType]string{
	AnalyzerUnknown:    "Unknown",
	AnalyzerQuadrupole: "Quadrupole",
	AnalyzerITMS:       "ITMS",
	AnalyzerTOFMS:      "TOFMS",
	AnalyzerFTMS:       "FTMS",
	AnalyzerSector:     "Sector",
	AnalyzerOrbitrap:   "Orbitrap",
	AnalyzerAstral:     "Astral",
}

func (a MZAnalyzerType) String() string {
	if name, ok := analyzerNames[a]; ok {
		return name
	}
	return fmt.Sprintf("MZAnalyzerType(%d)", int(a))
}

// ParseMZAnalyzerType accepts the names produced by String. The MSP
// shorthands "FT" and "IT" map to FTMS and ITMS.
func ParseMZAnalyzerType(s string) (MZAnalyzerType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FT":
		return AnalyzerFTMS, nil
	case "IT":
		return AnalyzerITMS, nil
	case "TOF":
		return AnalyzerTOFMS, nil
	}
	return parseEnum(s, analyzerNames, "mass analyzer")
}

// DissociationType is the activation method used to fragment a precursor.
// The numeric values are stable and persisted by the SQLite writer.
type DissociationType int

const (
	DissociationUnknown DissociationType = -1
	DissociationCID     DissociationType = 0
	DissociationMPD     DissociationType = 1
	DissociationECD     DissociationType = 2
	DissociationPQD     DissociationType = 3
	DissociationETD     DissociationType = 4
	DissociationHCD     DissociationType = 5
	DissociationNone    DissociationType = 6
	DissociationSA      DissociationType = 7
	DissociationPTR     DissociationType = 8
	DissociationNETD    DissociationType = 9
	DissociationNPTR    DissociationType = 10
	DissociationCI      DissociationType = 11
)

var dissociationNames = map[DissociationType]string{
	DissociationUnknown: "Unknown",
	DissociationCID:     "CID",
	DissociationMPD:     "MPD",
	DissociationECD:     "ECD",
	DissociationPQD:     "PQD",
	DissociationETD:     "ETD",
	DissociationHCD:     "HCD",
	DissociationNone:    "None",
	DissociationSA:      "SA",
	DissociationPTR:     "PTR",
	DissociationNETD:    "NETD",
	DissociationNPTR:    "NPTR",
	DissociationCI:      "CI",
}

func (d DissociationType) String() string {
	if name, ok := dissociationNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DissociationType(%d)", int(d))
}

// ParseDissociationType accepts the names produced by String.
func ParseDissociationType(s string) (DissociationType, error) {
	return parseEnum(s, dissociationNames, "dissociation type")
}

// FileType identifies the backend a File reads from.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeMSP
	FileTypeMzML
	FileTypeSQLite
	FileTypeMemory
)

var fileTypeNames = map[FileType]string{
	FileTypeUnknown: "Unknown",
	FileTypeMSP:     "MSP",
	FileTypeMzML:    "MzML",
	FileTypeSQLite:  "SQLite",
	FileTypeMemory:  "Memory",
}

func (f FileType) String() string {
	if name, ok := fileTypeNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FileType(%d)", int(f))
}

// ParseFileType accepts the names produced by String.
func ParseFileType(s string) (FileType, error) {
	return parseEnum(s, fileTypeNames, "file type")
}

// FileTypeFromExtension guesses the backend from a path's extension.
func FileTypeFromExtension(path string) FileType {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".msp"), strings.HasSuffix(lower, ".sptxt"):
		return FileTypeMSP
	case strings.HasSuffix(lower, ".mzml"):
		return FileTypeMzML
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".dlib"):
		return FileTypeSQLite
	default:
		return FileTypeUnknown
	}
}

func parseEnum[T comparable](s string, names map[T]string, kind string) (T, error) {
	s = strings.TrimSpace(s)
	for value, name := range names {
		if strings.EqualFold(name, s) {
			return value, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s '%s'", kind, s)
}
