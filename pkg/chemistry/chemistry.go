// Package chemistry provides the mass constants and conversions used when
// interpreting precursor and fragment m/z values.
package chemistry

import "math"

// Atomic masses (monoisotopic)
const (
	MassH = 1.0078250321
	MassC = 12.0000000000
	MassN = 14.0030740052
	MassO = 15.9949146221
	MassS = 31.9720706900
	MassP = 30.9737615100

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688

	// WaterMass is added once per peptide for the termini
	WaterMass = 2*MassH + MassO
)

// Composition stores elemental counts
type Composition struct {
	C, H, N, O, S int
}

// Mass returns the monoisotopic mass of the composition.
func (c Composition) Mass() float64 {
	return float64(c.C)*MassC +
		float64(c.H)*MassH +
		float64(c.N)*MassN +
		float64(c.O)*MassO +
		float64(c.S)*MassS
}

func (c Composition) add(other Composition) Composition {
	return Composition{
		C: c.C + other.C,
		H: c.H + other.H,
		N: c.N + other.N,
		O: c.O + other.O,
		S: c.S + other.S,
	}
}

// Residues maps amino acid one-letter codes to residue composition
var Residues = map[rune]Composition{
	'A': {C: 3, H: 5, N: 1, O: 1},
	'R': {C: 6, H: 12, N: 4, O: 1},
	'N': {C: 4, H: 6, N: 2, O: 2},
	'D': {C: 4, H: 5, N: 1, O: 3},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'E': {C: 5, H: 7, N: 1, O: 3},
	'Q': {C: 5, H: 8, N: 2, O: 2},
	'G': {C: 2, H: 3, N: 1, O: 1},
	'H': {C: 6, H: 7, N: 3, O: 1},
	'I': {C: 6, H: 11, N: 1, O: 1},
	'L': {C: 6, H: 11, N: 1, O: 1},
	'K': {C: 6, H: 12, N: 2, O: 1},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'F': {C: 9, H: 9, N: 1, O: 1},
	'P': {C: 5, H: 7, N: 1, O: 1},
	'S': {C: 3, H: 5, N: 1, O: 2},
	'T': {C: 4, H: 7, N: 1, O: 2},
	'W': {C: 11, H: 10, N: 2, O: 1},
	'Y': {C: 9, H: 9, N: 1, O: 2},
	'V': {C: 5, H: 9, N: 1, O: 1},
}

// NeutralMass computes the neutral monoisotopic mass of a peptide sequence
// plus its modifications. Unknown residues contribute nothing.
func NeutralMass(sequence string, modifications []Modification) float64 {
	comp := Composition{H: 2, O: 1}
	for _, aa := range sequence {
		if residue, ok := Residues[aa]; ok {
			comp = comp.add(residue)
		}
	}

	mass := comp.Mass()
	for _, mod := range modifications {
		mass += mod.Mass
	}
	return mass
}

// PeptideMZ returns the m/z of a peptide at the given charge.
func PeptideMZ(sequence string, charge int, modifications []Modification) float64 {
	return MzFromMass(NeutralMass(sequence, modifications), charge)
}

// MzFromMass converts a neutral mass to m/z for a protonated ion.
// A zero charge returns the mass unchanged.
func MzFromMass(mass float64, charge int) float64 {
	if charge == 0 {
		return mass
	}
	z := float64(charge)
	return (mass + z*ProtonMass) / math.Abs(z)
}

// MassFromMz converts the m/z of a protonated ion back to its neutral mass.
// A zero charge returns the m/z unchanged.
func MassFromMz(mz float64, charge int) float64 {
	if charge == 0 {
		return mz
	}
	z := float64(charge)
	return mz*math.Abs(z) - z*ProtonMass
}

// PPMError returns (observed - theoretical) in parts per million.
func PPMError(theoretical, observed float64) float64 {
	return (observed - theoretical) / theoretical * 1e6
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
