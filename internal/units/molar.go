package units

import (
	"fmt"
	"strings"
)

// MolarMassAir is the mean molar mass of dry air in g/mol.
const MolarMassAir = 28.97

// molarMass holds species molar masses in g/mol, keyed by upper-case formula.
var molarMass = map[string]float64{
	"CO":   28.01,
	"O3":   47.997,
	"H2O2": 34.0147,
	"CH4":  16.04,
	"NO2":  46.0055,
	"NO":   30.006,
	"HNO3": 63.01,
	"HCHO": 30.031,
	"C2H6": 30.07,
	"C3H8": 44.1,
	"PAN":  121.05,
}

// MolarMass returns the molar mass of a species in g/mol.
func MolarMass(species string) (float64, error) {
	m, ok := molarMass[strings.ToUpper(species)]
	if !ok {
		return 0, fmt.Errorf("unknown molar mass for species %q", species)
	}
	return m, nil
}

// MassToVolumeMixingRatio returns the factor converting a mass mixing ratio
// (kg/kg) of species into a mole fraction (mol/mol).
func MassToVolumeMixingRatio(species string) (float64, error) {
	m, err := MolarMass(species)
	if err != nil {
		return 0, err
	}
	return MolarMassAir / m, nil
}

// Factor returns the multiplier converting values of species from one unit to
// another. Besides the table pairs it understands "kg/kg" as a mass mixing
// ratio, which is first turned into mol/mol.
func Factor(species, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	f := 1.0
	if from == "kg/kg" {
		mmr, err := MassToVolumeMixingRatio(species)
		if err != nil {
			return 0, err
		}
		f, from = mmr, "mol/mol"
	}
	g, err := Convert(1, from, to)
	if err != nil {
		return 0, err
	}
	return f * g, nil
}
