// Package msp reads MSP (NIST / Prosit) and SpectraST SPTXT spectral
// libraries. Parser streams library entries; Reader exposes a whole library
// as an msdata.Reader where every entry is an MS2 scan.
package msp

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/msdata/pkg/chemistry"
	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

// Entry is one library spectrum.
type Entry struct {
	Sequence        string
	Charge          int
	PrecursorMZ     float64 // Parent= or PrecursorMZ:, 0 when absent
	CollisionEnergy float64
	RetentionTime   *float64 // iRT or RetentionTime, nil when absent
	Modifications   []chemistry.Modification
	Spectrum        *spectra.Spectrum
}

// Name returns the "SEQUENCE/CHARGE" name of the entry.
func (e *Entry) Name() string {
	return fmt.Sprintf("%s/%d", e.Sequence, e.Charge)
}

// CalculatedMZ returns the reported precursor m/z, or the m/z computed from
// the sequence and modifications when none was reported.
func (e *Entry) CalculatedMZ() float64 {
	if e.PrecursorMZ > 0 {
		return e.PrecursorMZ
	}
	return chemistry.PeptideMZ(e.Sequence, e.Charge, e.Modifications)
}

// maxPeakHint caps the capacity reserved from a Num peaks line.
const maxPeakHint = 4096

// Parser provides streaming access to MSP format files
type Parser struct {
	scanner *bufio.Scanner
	modDB   *chemistry.ModDatabase
	lineNum int
	current *Entry
	err     error
}

// NewParser creates a new MSP parser. A nil modDB uses the default database.
func NewParser(r io.Reader, modDB *chemistry.ModDatabase) *Parser {
	if modDB == nil {
		modDB = chemistry.DefaultModDatabase()
	}

	return &Parser{
		scanner: bufio.NewScanner(r),
		modDB:   modDB,
	}
}

// Next advances to the next entry. Returns false when no more entries or error.
func (p *Parser) Next() bool {
	p.current = nil

	entry, err := p.readEntry()
	if err != nil {
		if err != io.EOF {
			p.err = err
		}
		return false
	}

	p.current = entry
	return true
}

// Entry returns the current entry
func (p *Parser) Entry() *Entry {
	return p.current
}

// Err returns any error encountered during reading
func (p *Parser) Err() error {
	return p.err
}

// readEntry reads a single entry from the MSP file
func (p *Parser) readEntry() (*Entry, error) {
	entry := &Entry{}
	var mz, intensities []float64

	var numPeaks int
	inPeaks := false
	named := false

	for p.scanner.Scan() {
		p.lineNum++
		line := strings.TrimSpace(p.scanner.Text())

		// SPTXT files start with a "###" comment block
		if strings.HasPrefix(line, "###") {
			continue
		}

		// Skip empty lines between entries
		if line == "" {
			if named && !inPeaks {
				return nil, fmt.Errorf("line %d: entry %s ended before Num peaks", p.lineNum, entry.Name())
			}
			continue
		}

		if !inPeaks {
			key, value, _ := strings.Cut(line, ":")
			value = strings.TrimSpace(value)
			switch strings.ToLower(key) {
			case "name":
				if err := parseName(entry, value); err != nil {
					return nil, fmt.Errorf("line %d: %w", p.lineNum, err)
				}
				named = true
			case "mw":
				// Recomputed from the sequence
			case "precursormz":
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					entry.PrecursorMZ = v
				}
			case "comment":
				p.parseComment(entry, value)
			case "num peaks", "numpeaks":
				n, err := strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid num peaks: %w", p.lineNum, err)
				}
				if n < 0 {
					return nil, fmt.Errorf("line %d: negative num peaks %d", p.lineNum, n)
				}
				if !named {
					return nil, fmt.Errorf("line %d: Num peaks before Name", p.lineNum)
				}
				numPeaks = n
				inPeaks = true
				// append grows past the hint for larger entries
				hint := min(n, maxPeakHint)
				mz = make([]float64, 0, hint)
				intensities = make([]float64, 0, hint)
			}
			if inPeaks && numPeaks == 0 {
				break
			}
			continue
		}

		peakMZ, peakIntensity, err := parsePeak(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", p.lineNum, err)
		}
		mz = append(mz, peakMZ)
		intensities = append(intensities, peakIntensity)

		if len(mz) >= numPeaks {
			break
		}
	}

	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	if !named {
		return nil, io.EOF
	}
	if !inPeaks {
		return nil, fmt.Errorf("line %d: entry %s has no peak list", p.lineNum, entry.Name())
	}
	if len(mz) < numPeaks {
		return nil, fmt.Errorf("line %d: entry %s has %d of %d peaks", p.lineNum, entry.Name(), len(mz), numPeaks)
	}

	sortPeaks(mz, intensities)
	spectrum, err := spectra.New(mz, intensities, false)
	if err != nil {
		return nil, err
	}
	entry.Spectrum = spectrum
	return entry, nil
}

// parseName extracts sequence and charge from Name field (format: "SEQUENCE/CHARGE").
// SPTXT sequences carry inline modifications, e.g. "n[305]PEPC[160]TIDE/3".
func parseName(entry *Entry, name string) error {
	seq, chargeStr, ok := strings.Cut(name, "/")
	if !ok {
		return fmt.Errorf("invalid name format '%s', expected 'SEQUENCE/CHARGE'", name)
	}

	// Prosit names may append the collision energy ("PEPTIDE/2_35")
	chargeStr, _, _ = strings.Cut(chargeStr, "_")
	charge, err := strconv.Atoi(chargeStr)
	if err != nil {
		return fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}

	entry.Charge = charge
	entry.Sequence = seq
	if strings.Contains(seq, "[") {
		sequence, mods, err := parseInlineModifications(seq)
		if err != nil {
			return fmt.Errorf("failed to parse modifications from sequence: %w", err)
		}
		entry.Sequence = sequence
		entry.Modifications = mods
	}
	return nil
}

var inlineModRegexp = regexp.MustCompile(`([a-zA-Z]?)\[(\d+(?:\.\d+)?)\]`)

// parseInlineModifications strips SPTXT inline masses from a sequence. The
// bracketed value is the total mass of the modified residue (or of the
// N-terminal group for "n"), so the shift is taken relative to the bare
// residue.
func parseInlineModifications(rawSeq string) (string, []chemistry.Modification, error) {
	var sequence strings.Builder
	var mods []chemistry.Modification

	lastIdx := 0
	for _, match := range inlineModRegexp.FindAllStringSubmatchIndex(rawSeq, -1) {
		sequence.WriteString(rawSeq[lastIdx:match[0]])

		aa := rawSeq[match[2]:match[3]]
		massStr := rawSeq[match[4]:match[5]]
		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid modification mass '%s': %w", massStr, err)
		}

		if aa == "n" || aa == "" {
			mods = append(mods, chemistry.Modification{
				Mass:     mass - chemistry.MassH,
				Position: -1,
				Name:     massStr,
			})
		} else {
			residue, ok := chemistry.Residues[rune(aa[0])]
			if !ok {
				return "", nil, fmt.Errorf("unknown residue '%s' in '%s'", aa, rawSeq)
			}
			mods = append(mods, chemistry.Modification{
				Mass:     mass - residue.Mass(),
				Position: sequence.Len(),
				Name:     massStr,
			})
			sequence.WriteString(aa)
		}

		lastIdx = match[1]
	}
	sequence.WriteString(rawSeq[lastIdx:])

	return sequence.String(), mods, nil
}

// parseComment extracts metadata from the Comment field. Unparseable values
// are ignored.
func (p *Parser) parseComment(entry *Entry, comment string) {
	// Example: Parent=414.71 Collision_energy=35 Mods=1/-1,R,TMT_Pro iRT=61.01
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "Parent":
			if mz, err := strconv.ParseFloat(value, 64); err == nil {
				entry.PrecursorMZ = mz
			}

		case "Collision_energy", "CollisionEnergy":
			if ce, err := strconv.ParseFloat(value, 64); err == nil {
				entry.CollisionEnergy = ce
			}

		case "iRT", "RetentionTime":
			// SPTXT lists one value per replicate; keep the first
			value, _, _ = strings.Cut(value, ",")
			if rt, err := strconv.ParseFloat(value, 64); err == nil {
				entry.RetentionTime = &rt
			}

		case "Mods":
			if entry.Modifications == nil {
				entry.Modifications = p.parseMods(value)
			}

		case "ModString":
			// SEQUENCE//Mod@Pos;Mod@Pos/Charge
			_, mods, ok := strings.Cut(value, "//")
			if !ok {
				continue
			}
			mods, _, _ = strings.Cut(mods, "/")
			if parsed, err := p.modDB.ParseModString(mods); err == nil && parsed != nil {
				entry.Modifications = parsed
			}
		}
	}
}

// parseMods parses the NIST Mods field, "count/pos,AA,name/pos,AA,name".
// Positions are 0-based with -1 for the N-terminus. Unknown names are skipped.
func (p *Parser) parseMods(modsStr string) []chemistry.Modification {
	parts := strings.Split(modsStr, "/")
	var mods []chemistry.Modification
	for _, part := range parts[1:] {
		fields := strings.Split(part, ",")
		if len(fields) < 3 {
			continue
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		mass, ok := p.modDB.Mass(fields[2])
		if !ok {
			continue
		}
		mods = append(mods, chemistry.Modification{Mass: mass, Position: pos, Name: fields[2]})
	}
	return mods
}

// parsePeak parses a single peak line (format: "mz\tintensity\t\"annotation\"")
func parsePeak(line string) (float64, float64, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid intensity value: %w", err)
	}

	return mz, intensity, nil
}
