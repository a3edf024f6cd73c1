package eval

import (
	"fmt"

	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/stats"
)

// Box is a named latitude/longitude region sampled for a vertical profile.
type Box struct {
	Name   string
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
	// Year restricts the profile to one campaign year; zero pools all years.
	Year int
}

// Quartiles holds the 25th, 50th and 75th percentiles at each level.
type Quartiles struct {
	Lev []float64
	P25 []float64
	P50 []float64
	P75 []float64
}

// BoxProfile gathers the model values inside box for calendar month month
// (of box.Year, or of all years when it is zero) and returns their quartiles
// per level, multiplied by factor.
func BoxProfile(f *field.Field, box Box, month int, factor float64) (*Quartiles, error) {
	sel, err := f.SelectMonth(month)
	if err != nil {
		return nil, err
	}
	if box.Year > 0 {
		if sel, err = sel.SelectYear(box.Year); err != nil {
			return nil, fmt.Errorf("box %s: %w", box.Name, err)
		}
	}
	if sel, err = sel.SliceRange(field.Lat, box.LatMin, box.LatMax); err != nil {
		return nil, fmt.Errorf("box %s: %w", box.Name, err)
	}
	lon, err := sel.Coord(field.Lon)
	if err != nil {
		return nil, err
	}
	lo, hi := gridLon(lon, box.LonMin), gridLon(lon, box.LonMax)
	inBox := func(x float64) bool { return x >= lo && x <= hi }
	if lo > hi {
		// The box straddles the grid's longitude seam.
		inBox = func(x float64) bool { return x >= lo || x <= hi }
	}
	if sel, err = sel.Where(field.Lon, inBox); err != nil {
		return nil, fmt.Errorf("box %s: %w", box.Name, err)
	}

	lev, err := sel.Coord(field.Lev)
	if err != nil {
		return nil, err
	}
	q := &Quartiles{
		Lev: append([]float64(nil), lev...),
		P25: make([]float64, len(lev)),
		P50: make([]float64, len(lev)),
		P75: make([]float64, len(lev)),
	}
	for l := range lev {
		at, err := sel.SelectIndex(field.Lev, l)
		if err != nil {
			return nil, err
		}
		qs, err := stats.Quantiles(at.Data, 0.25, 0.5, 0.75)
		if err != nil {
			return nil, fmt.Errorf("box %s level %g: %w", box.Name, lev[l], err)
		}
		q.P25[l], q.P50[l], q.P75[l] = qs[0]*factor, qs[1]*factor, qs[2]*factor
	}
	return q, nil
}

// gridLon maps a -180..180 longitude onto a 0..360 grid when needed.
func gridLon(grid []float64, lon float64) float64 {
	maxLon := grid[0]
	for _, g := range grid {
		maxLon = max(maxLon, g)
	}
	if maxLon > 180 && lon < 0 {
		return lon + 360
	}
	return lon
}

// DomainProfile averages f over time and, area weighted, over the whole
// horizontal domain, leaving one value per level.
func DomainProfile(f *field.Field) (lev, values []float64, err error) {
	if f.Has(field.Time) {
		if f, err = f.MeanOver(field.Time); err != nil {
			return nil, nil, err
		}
	}
	if f, err = f.AreaWeightedMean(-90, 90); err != nil {
		return nil, nil, err
	}
	if len(f.Dims) != 1 || f.Dims[0] != field.Lev {
		return nil, nil, fmt.Errorf("field %s: expected a vertical profile, have dims %v", f.Name, f.Dims)
	}
	return f.Series()
}
