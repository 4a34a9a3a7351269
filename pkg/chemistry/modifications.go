package chemistry

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Modification is a mass shift at a residue position.
type Modification struct {
	Mass     float64
	Position int    // 0-based position; -1 for N-term
	Name     string // e.g. "Carbamidomethyl", "Oxidation"
}

// ModDatabase stores modification mass shifts by name
type ModDatabase struct {
	mods map[string]float64
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{mods: make(map[string]float64)}
}

// LoadFromCSV loads modifications from CSV with a header row (mod,massshift[,aa]).
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Scan() // header

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: expected at least 2 comma-separated fields", lineNum)
		}

		massStr := strings.TrimSpace(parts[1])
		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}
		db.mods[strings.TrimSpace(parts[0])] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read modification CSV: %w", err)
	}
	return nil
}

// Mass returns the mass shift for a modification name
func (db *ModDatabase) Mass(name string) (float64, bool) {
	mass, ok := db.mods[name]
	return mass, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// Len returns the number of known modifications.
func (db *ModDatabase) Len() int {
	return len(db.mods)
}

// ParseModString parses "name@pos;name@pos" or "mass@pos" lists. Positions
// may carry a residue letter ("C2") and are converted to 0-based; "-1" marks
// the N-terminus.
func (db *ModDatabase) ParseModString(modStr string) ([]Modification, error) {
	if modStr == "" {
		return nil, nil
	}

	var mods []Modification
	for _, part := range strings.Split(modStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		nameOrMass, posStr, ok := strings.Cut(part, "@")
		if !ok {
			return nil, fmt.Errorf("invalid modification '%s', expected 'name@position'", part)
		}
		nameOrMass = strings.TrimSpace(nameOrMass)

		mass, err := strconv.ParseFloat(nameOrMass, 64)
		if err != nil {
			var known bool
			mass, known = db.Mass(nameOrMass)
			if !known {
				return nil, fmt.Errorf("unknown modification '%s'", nameOrMass)
			}
		}

		position, err := parsePosition(posStr)
		if err != nil {
			return nil, fmt.Errorf("invalid position '%s': %w", posStr, err)
		}

		mods = append(mods, Modification{Mass: mass, Position: position, Name: nameOrMass})
	}
	return mods, nil
}

func parsePosition(posStr string) (int, error) {
	posStr = strings.TrimSpace(posStr)
	if strings.HasSuffix(posStr, "-1") {
		return -1, nil
	}

	posStr = strings.TrimLeft(posStr, "ACDEFGHIKLMNPQRSTVWY")
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		return 0, fmt.Errorf("invalid position number: %w", err)
	}
	if pos > 0 {
		pos--
	}
	return pos, nil
}

// DefaultModDatabase returns a ModDatabase loaded with common unimod entries
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()
	for name, mass := range map[string]float64{
		"Acetyl":          42.010565,
		"Amidated":        -0.984016,
		"Carbamidomethyl": 57.021464,
		"Carbamyl":        43.005814,
		"Deamidated":      0.984016,
		"Dimethyl":        28.0313,
		"Gln->pyro-Glu":   -17.026549,
		"Glu->pyro-Glu":   -18.010565,
		"HexNAc":          203.079373,
		"Methyl":          14.01565,
		"Oxidation":       15.994915,
		"Phospho":         79.966331,
		"Propionamide":    71.037114,
		"TMT":             229.162932,
		"TMT6plex":        229.162932,
		"TMTPro":          304.207146,
		"TMT_Pro":         304.207146,
		"iTRAQ4plex":      144.102063,
		"iTRAQ8plex":      304.205360,
	} {
		db.Add(name, mass)
	}
	return db
}
