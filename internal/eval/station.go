// Package eval holds the model-versus-observation computations behind each
// figure. Nothing here draws; the plotting package renders the results.
package eval

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/station"
	"github.com/rtm0/ukcaeval/internal/stats"
	"github.com/rtm0/ukcaeval/internal/units"
)

// SeasonalOptions configures StationSeasonal.
type SeasonalOptions struct {
	// Level is the vertical coordinate sampled when the fields have one.
	Level      float64
	ModelUnits string
	PlotUnits  string
	// Concurrency bounds the number of sites evaluated at once. Zero means
	// GOMAXPROCS.
	Concurrency int
}

// SeasonalPanel is the monthly cycle at one site. When Err is set the other
// values are unset and the panel is drawn as an error.
type SeasonalPanel struct {
	Site    station.Site
	Months  []float64
	ObsMean []float64
	ObsStd  []float64
	ModMean []float64
	R       float64
	MBE     float64
	Err     error
}

// StationSeasonal samples obs and mod at the grid point nearest to each site
// and compares their monthly climatologies. The correlation and mean bias
// are computed in model units before the values are converted for plotting.
// A failing site only fails its panel; the returned error is reserved for
// cancellation.
func StationSeasonal(ctx context.Context, obs, mod *field.Field, sites []station.Site, opts SeasonalOptions) ([]SeasonalPanel, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	panels := make([]SeasonalPanel, len(sites))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, site := range sites {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := seasonalPanel(obs, mod, site, opts)
			if err != nil {
				p = SeasonalPanel{Site: site, Err: err}
			}
			panels[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return panels, nil
}

func seasonalPanel(obs, mod *field.Field, site station.Site, opts SeasonalOptions) (SeasonalPanel, error) {
	obsMean, obsStd, err := monthlyAt(obs, site, opts.Level)
	if err != nil {
		return SeasonalPanel{}, fmt.Errorf("obs: %w", err)
	}
	modMean, _, err := monthlyAt(mod, site, opts.Level)
	if err != nil {
		return SeasonalPanel{}, fmt.Errorf("model: %w", err)
	}
	months, om, err := obsMean.Series()
	if err != nil {
		return SeasonalPanel{}, err
	}
	modMonths, mm, err := modMean.Series()
	if err != nil {
		return SeasonalPanel{}, err
	}
	if !field.AllClose(months, modMonths, 0) {
		return SeasonalPanel{}, fmt.Errorf("obs months %v differ from model months %v", months, modMonths)
	}
	r, err := stats.Correlation(om, mm)
	if err != nil {
		return SeasonalPanel{}, err
	}
	mbe, err := stats.MeanBiasError(om, mm)
	if err != nil {
		return SeasonalPanel{}, err
	}

	p := SeasonalPanel{Site: site, Months: months, R: r, MBE: mbe}
	if p.ObsMean, err = units.ConvertSlice(om, opts.ModelUnits, opts.PlotUnits); err != nil {
		return SeasonalPanel{}, err
	}
	if p.ObsStd, err = units.ConvertSlice(obsStd.Data, opts.ModelUnits, opts.PlotUnits); err != nil {
		return SeasonalPanel{}, err
	}
	if p.ModMean, err = units.ConvertSlice(mm, opts.ModelUnits, opts.PlotUnits); err != nil {
		return SeasonalPanel{}, err
	}
	return p, nil
}

// monthlyAt selects the level and grid point nearest to the site and returns
// its monthly mean and standard deviation.
func monthlyAt(f *field.Field, site station.Site, level float64) (mean, std *field.Field, err error) {
	if f.Has(field.Lev) {
		if f, err = f.SelectNearest(field.Lev, level); err != nil {
			return nil, nil, err
		}
	}
	if f, err = f.SelectNearest(field.Lat, site.Lat); err != nil {
		return nil, nil, err
	}
	if f, err = f.SelectNearest(field.Lon, site.Lon); err != nil {
		return nil, nil, err
	}
	return f.GroupByMonth()
}
