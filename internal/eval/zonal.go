package eval

import (
	"fmt"

	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/stats"
)

// Named pairs a field with the label used in legends.
type Named struct {
	Name  string
	Field *field.Field
}

// ZonalStats is the zonal mean of a field for one season and the zonal mean
// of its interannual standard deviation.
type ZonalStats struct {
	Mean []float64
	Std  []float64
}

// ModelSeason is one model's zonal statistics with its percent bias against
// the observations and the propagated uncertainty of that bias.
type ModelSeason struct {
	Name string
	ZonalStats
	Bias []float64
	Band []float64
}

// SeasonZonal holds every curve drawn on one seasonal page.
type SeasonZonal struct {
	Season string
	Lat    []float64
	Obs    ZonalStats
	Models []ModelSeason
}

// SeasonalZonal restricts all fields to the window the models share,
// interpolates the models onto the observation latitudes and summarises
// each season (then the whole year) as zonal means and percent biases.
func SeasonalZonal(obs *field.Field, models []Named) ([]SeasonZonal, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("no models to compare")
	}
	fs := make([]*field.Field, len(models))
	for i, m := range models {
		fs[i] = m.Field
	}
	start, end, err := field.TimeIntersect(fs...)
	if err != nil {
		return nil, err
	}
	if obs, err = obs.SliceTime(start, end); err != nil {
		return nil, fmt.Errorf("obs within %s..%s: %w", start, end, err)
	}
	lat, err := obs.Coord(field.Lat)
	if err != nil {
		return nil, err
	}
	for i, f := range fs {
		if fs[i], err = f.SliceTime(start, end); err != nil {
			return nil, fmt.Errorf("%s: %w", models[i].Name, err)
		}
		if fs[i], err = fs[i].InterpLat(lat); err != nil {
			return nil, fmt.Errorf("%s: %w", models[i].Name, err)
		}
	}

	var out []SeasonZonal
	for _, season := range append(append([]string(nil), field.Seasons...), field.Annual) {
		sz := SeasonZonal{Season: season, Lat: append([]float64(nil), lat...)}
		if sz.Obs, err = seasonZonalStats(obs, season); err != nil {
			return nil, fmt.Errorf("obs %s: %w", season, err)
		}
		for i, f := range fs {
			ms := ModelSeason{Name: models[i].Name}
			if ms.ZonalStats, err = seasonZonalStats(f, season); err != nil {
				return nil, fmt.Errorf("%s %s: %w", models[i].Name, season, err)
			}
			if ms.Bias, err = stats.PercentBias(ms.Mean, sz.Obs.Mean); err != nil {
				return nil, err
			}
			if ms.Band, err = stats.PercentBiasBand(ms.Mean, ms.Std, sz.Obs.Mean, sz.Obs.Std); err != nil {
				return nil, err
			}
			sz.Models = append(sz.Models, ms)
		}
		out = append(out, sz)
	}
	return out, nil
}

// seasonZonalStats averages over the season's time steps and then over
// longitude. The standard deviation is taken over time first.
func seasonZonalStats(f *field.Field, season string) (ZonalStats, error) {
	sel, err := f.SelectSeason(season)
	if err != nil {
		return ZonalStats{}, err
	}
	mean, err := sel.MeanOver(field.Time)
	if err != nil {
		return ZonalStats{}, err
	}
	if mean, err = mean.MeanOver(field.Lon); err != nil {
		return ZonalStats{}, err
	}
	std, err := sel.StdOver(field.Time)
	if err != nil {
		return ZonalStats{}, err
	}
	if std, err = std.MeanOver(field.Lon); err != nil {
		return ZonalStats{}, err
	}
	if len(mean.Dims) != 1 || mean.Dims[0] != field.Lat {
		return ZonalStats{}, fmt.Errorf("field %s: zonal mean has dims %v, want (lat)", f.Name, mean.Dims)
	}
	return ZonalStats{Mean: mean.Data, Std: std.Data}, nil
}
