package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/plotting"
	"github.com/rtm0/ukcaeval/internal/station"
)

func newSeasonalCmd(a *app) *cobra.Command {
	var (
		obsFile, modelFile, stations, varName, output string
		level                                         float64
	)
	cmd := &cobra.Command{
		Use:   "seasonal",
		Short: "Seasonal cycle at surface stations, model vs observations",
		Long: `Samples the observed and modelled fields at the grid point nearest to each
station inside the model domain, and draws the monthly climatologies with the
correlation and mean bias error of every site. A site that cannot be
evaluated gets an error panel; the rest of the grid still renders.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Seasonal
			setIfChanged(cmd, "obs-file", &c.ObsFile, obsFile)
			setIfChanged(cmd, "model-file", &c.ModelFile, modelFile)
			setIfChanged(cmd, "stations", &c.StationsCSV, stations)
			setIfChanged(cmd, "var", &c.VarName, varName)
			setIfChanged(cmd, "level", &c.Level, level)
			setIfChanged(cmd, "output", &c.Output, output)
			if err := c.Validate(); err != nil {
				return err
			}
			return a.runSeasonal(cmd.Context(), c)
		},
	}
	cmd.Flags().StringVar(&obsFile, "obs-file", "", "NetCDF file with the observed field")
	cmd.Flags().StringVar(&modelFile, "model-file", "", "NetCDF file with the model field")
	cmd.Flags().StringVar(&stations, "stations", "", "station CSV with Site Name, Latitude and Longitude columns")
	cmd.Flags().StringVar(&varName, "var", "", "variable name or long_name fragment")
	cmd.Flags().Float64Var(&level, "level", 0, "vertical level sampled when the fields have one")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output figure (.pdf paginates)")
	return cmd
}

func (a *app) runSeasonal(ctx context.Context, c config.Seasonal) error {
	obs, err := a.openField(c.ObsFile, c.VarName)
	if err != nil {
		return err
	}
	mod, err := a.openField(c.ModelFile, c.VarName)
	if err != nil {
		return err
	}
	df, err := station.Load(c.StationsCSV)
	if err != nil {
		return err
	}
	a.metrics.FilesRead.Inc()
	b, err := station.BoundsOf(mod)
	if err != nil {
		return err
	}
	sites := station.Sites(station.Filter(df, b))
	a.logger.Info("stations in model domain", "total", df.Nrow(), "kept", len(sites),
		"latMin", b.LatMin, "latMax", b.LatMax, "lonMin", b.LonMin, "lonMax", b.LonMax)

	panels, err := eval.StationSeasonal(ctx, obs, mod, sites, eval.SeasonalOptions{
		Level:       c.Level,
		ModelUnits:  c.ModelUnits,
		PlotUnits:   c.PlotUnits,
		Concurrency: c.Concurrency,
	})
	if err != nil {
		return err
	}
	for _, p := range panels {
		if p.Err != nil {
			a.metrics.PanelErrors.Inc()
			a.logger.Warn("station panel failed", "site", p.Site.Name, "err", p.Err)
		}
	}
	a.metrics.PanelsRendered.Add(float64(len(panels)))

	err = plotting.StationGrid(c.Output, panels, plotting.StationGridOptions{
		Rows:    c.Rows,
		Cols:    c.Cols,
		Species: c.Species,
		Units:   c.PlotUnits,
		YLim:    c.YLim,
	})
	if err != nil {
		return err
	}
	a.saved(c.Output)
	return nil
}
