// Package units converts trace-gas mixing ratios between the unit strings
// used by model output and observation products.
package units

import (
	"errors"
	"fmt"
)

// ErrNoConversion is returned when the conversion table has no entry for a
// pair of units.
var ErrNoConversion = errors.New("no conversion")

// MolPerMolToPPBV converts a mole fraction to parts per billion by volume.
func MolPerMolToPPBV(x float64) float64 { return x * 1e9 }

// PPBVToMolPerMol converts parts per billion by volume to a mole fraction.
func PPBVToMolPerMol(x float64) float64 { return x / 1e9 }

// MolPerMolToPPTV converts a mole fraction to parts per trillion by volume.
func MolPerMolToPPTV(x float64) float64 { return x * 1e12 }

// PPTVToMolPerMol converts parts per trillion by volume to a mole fraction.
func PPTVToMolPerMol(x float64) float64 { return x / 1e12 }

// PPMVToMolPerMol converts parts per million by volume to a mole fraction.
func PPMVToMolPerMol(x float64) float64 { return x * 1e-6 }

type pair struct {
	from, to string
}

var conversions = map[pair]func(float64) float64{
	{"mol/mol", "ppbv"}: MolPerMolToPPBV,
	{"ppbv", "mol/mol"}: PPBVToMolPerMol,
	{"mol/mol", "pptv"}: MolPerMolToPPTV,
	{"pptv", "mol/mol"}: PPTVToMolPerMol,
	{"ppmv", "mol/mol"}: PPMVToMolPerMol,
}

// Convert converts v from one unit to another. Equal units are returned
// unchanged; pairs missing from the table yield ErrNoConversion.
func Convert(v float64, from, to string) (float64, error) {
	if from == to {
		return v, nil
	}
	fn, ok := conversions[pair{from, to}]
	if !ok {
		return 0, fmt.Errorf("%w from %q to %q", ErrNoConversion, from, to)
	}
	return fn(v), nil
}

// ConvertSlice converts every element of xs and returns a new slice.
func ConvertSlice(xs []float64, from, to string) ([]float64, error) {
	out := make([]float64, len(xs))
	if from == to {
		copy(out, xs)
		return out, nil
	}
	fn, ok := conversions[pair{from, to}]
	if !ok {
		return nil, fmt.Errorf("%w from %q to %q", ErrNoConversion, from, to)
	}
	for i, x := range xs {
		out[i] = fn(x)
	}
	return out, nil
}
