package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/stats"
)

// ClimOptions configures ZonalClimatology.
type ClimOptions struct {
	// Levels is the number of filled contour levels for the model panel.
	Levels int
	// DiffLimit, when positive, fixes the difference levels to
	// -DiffLimit..DiffLimit every DiffStep. Otherwise they span the data
	// padded by DiffPad on both sides.
	DiffLimit float64
	DiffStep  float64
	DiffPad   float64
}

// DefaultClimOptions matches the usual figure: 30 model levels and 31
// difference levels padded by 0.05.
var DefaultClimOptions = ClimOptions{Levels: 30, DiffPad: 0.05}

// Diagnostics are the extent and missing-value counts logged for each
// climatology.
type Diagnostics struct {
	Model stats.Summary
	Obs   stats.Summary
	Diff  stats.Summary
	// Interpolated is set when the observations were regridded onto the
	// model latitudes.
	Interpolated bool
}

// Climatology is a pair of zonal-mean monthly climatologies, each with
// dimensions (month, lat) on the model latitudes, and their difference.
type Climatology struct {
	Model      *field.Field
	Obs        *field.Field
	Diff       *field.Field
	Levels     []float64
	DiffLevels []float64
	Diag       Diagnostics
}

// ZonalClimatology averages both fields over longitude, groups them by
// calendar month and differences them (model - obs). Observations on another
// latitude grid are interpolated onto the model latitudes first. Both
// climatologies must cover the same calendar months.
func ZonalClimatology(model, obs *field.Field, opts ClimOptions) (*Climatology, error) {
	mc, err := zonalMonthly(model)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	oc, err := zonalMonthly(obs)
	if err != nil {
		return nil, fmt.Errorf("obs: %w", err)
	}

	c := &Climatology{Model: mc, Obs: oc}
	mlat, _ := mc.Coord(field.Lat)
	olat, _ := oc.Coord(field.Lat)
	if !field.AllClose(mlat, olat, 1e-6) {
		if c.Obs, err = oc.InterpLat(mlat); err != nil {
			return nil, err
		}
		c.Diag.Interpolated = true
	}
	mmon, _ := mc.Coord(field.Month)
	omon, _ := oc.Coord(field.Month)
	if !field.AllClose(mmon, omon, 0) {
		return nil, fmt.Errorf("difference: %w: model months %v, obs months %v", field.ErrShape, mmon, omon)
	}
	if c.Diff, err = c.Model.Sub(c.Obs); err != nil {
		return nil, fmt.Errorf("difference: %w", err)
	}
	c.Diff.Name = "diff"

	c.Diag.Model = stats.Summarize(c.Model.Data)
	c.Diag.Obs = stats.Summarize(c.Obs.Data)
	c.Diag.Diff = stats.Summarize(c.Diff.Data)
	if c.Diag.Model.NaNs == c.Diag.Model.Count {
		return nil, fmt.Errorf("model climatology: %w: all values missing", field.ErrEmpty)
	}

	n := opts.Levels
	if n < 2 {
		n = DefaultClimOptions.Levels
	}
	c.Levels = floats.Span(make([]float64, n), math.Floor(c.Diag.Model.Min), math.Ceil(c.Diag.Model.Max))
	c.DiffLevels = DiffLevels(c.Diag.Diff, opts)
	return c, nil
}

// DiffLevels returns the contour levels for a difference field with the
// given extent.
func DiffLevels(s stats.Summary, opts ClimOptions) []float64 {
	if opts.DiffLimit > 0 {
		step := opts.DiffStep
		if step <= 0 {
			step = opts.DiffLimit / 20
		}
		var levels []float64
		for v := -opts.DiffLimit; v <= opts.DiffLimit+step/2; v += step {
			levels = append(levels, v)
		}
		return levels
	}
	if s.NaNs == s.Count {
		return []float64{-opts.DiffPad, opts.DiffPad}
	}
	return floats.Span(make([]float64, 31), s.Min-opts.DiffPad, s.Max+opts.DiffPad)
}

// zonalMonthly returns the (month, lat) climatology of a (time, lat, lon)
// field.
func zonalMonthly(f *field.Field) (*field.Field, error) {
	z, err := f.MeanOver(field.Lon)
	if err != nil {
		return nil, err
	}
	mean, _, err := z.GroupByMonth()
	if err != nil {
		return nil, err
	}
	if len(mean.Dims) != 2 || mean.Dims[0] != field.Month || mean.Dims[1] != field.Lat {
		return nil, fmt.Errorf("field %s: climatology has dims %v, want (month, lat)", f.Name, mean.Dims)
	}
	return mean, nil
}
