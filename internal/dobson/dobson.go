// Package dobson converts modelled ozone mass mixing ratios into column
// amounts in Dobson Units.
package dobson

import (
	"fmt"

	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/units"
)

// Standard conditions used to define the Dobson Unit.
const (
	StandardTemperature = 273.15   // K
	StandardPressure    = 101325.0 // Pa
	GasConstant         = 8.314    // J K-1 mol-1

	// metresPerDU is the inverse of one Dobson Unit, 10 µm of pure gas.
	metresPerDU = 1e5
)

// Long-name fragments of the model diagnostics Column consumes.
const (
	O3LongName      = "O3 MASS MIXING RATIO"
	AirMassLongName = "AIR MASS DIAGNOSTIC (WHOLE"
	TropoMaskName   = "TROPOSPHERIC MASK"
)

// Long names of the fields Column produces.
const (
	TotalLongName = "Total ozone column"
	TropoLongName = "Troposphere-only ozone column"
)

// Factor converts an ozone column in kg m-2 to Dobson Units: the gas is
// brought to standard temperature and pressure with pV = nRT and the
// resulting thickness expressed in units of 10 µm.
func Factor() float64 {
	mm, _ := units.MolarMass("O3")
	return GasConstant * StandardTemperature / StandardPressure / (mm * 1e-3) * metresPerDU
}

// Column integrates the ozone mass mixing ratio (kg kg-1) times the air mass
// per cell (kg) over the vertical and divides by the cell area, giving the
// ozone column in DU. When mask is non-nil only cells where it is set (the
// troposphere) contribute. All inputs share one shape with lev, lat and lon
// dimensions and lat, lon innermost.
func Column(o3, airMass, mask *field.Field) (*field.Field, error) {
	mass, err := o3.Mul(airMass)
	if err != nil {
		return nil, fmt.Errorf("ozone mass: %w", err)
	}
	longName := TotalLongName
	if mask != nil {
		if mass, err = mass.Mul(mask); err != nil {
			return nil, fmt.Errorf("tropospheric mask: %w", err)
		}
		longName = TropoLongName
	}

	col, err := mass.SumOver(field.Lev)
	if err != nil {
		return nil, err
	}
	n := len(col.Dims)
	if n < 2 || col.Dims[n-2] != field.Lat || col.Dims[n-1] != field.Lon {
		return nil, fmt.Errorf("%s: want lat, lon as innermost dimensions, have %v", o3.Name, col.Dims)
	}
	lat, lon := col.Coords[n-2], col.Coords[n-1]
	areas := field.CellAreas(lat, lon)
	plane := len(lat) * len(lon)
	k := Factor()
	for i := range col.Data {
		c := i % plane
		col.Data[i] = col.Data[i] / areas[c/len(lon)][c%len(lon)] * k
	}

	col.Name = "o3_column"
	col.Units = "DU"
	col.LongName = longName
	return col, nil
}
