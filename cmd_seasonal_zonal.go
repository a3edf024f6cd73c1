package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/plotting"
)

func newSeasonalZonalCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "seasonal-zonal",
		Short: "Seasonal zonal means and percent bias of several models against one observation set",
		Long: `Restricts every field to the period all models cover, interpolates the models
onto the observation latitudes and draws, per season and for the whole year,
the zonal means with their interannual spread and each model's percent bias.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.SeasonalZonal
			setIfChanged(cmd, "output", &c.Output, output)
			if err := c.Validate(); err != nil {
				return err
			}
			return a.runSeasonalZonal(cmd.Context(), c)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output figure (.pdf holds one page per season)")
	return cmd
}

func (a *app) runSeasonalZonal(ctx context.Context, c config.SeasonalZonal) error {
	srcs, err := a.openSources(ctx, append([]config.Source{c.Obs}, c.Models...))
	if err != nil {
		return err
	}
	seasons, err := eval.SeasonalZonal(srcs[0].Field, srcs[1:])
	if err != nil {
		return err
	}
	a.metrics.PanelsRendered.Add(float64(3 * len(seasons)))

	err = plotting.SeasonalZonal(c.Output, seasons, plotting.ZonalOptions{
		ObsName: c.Obs.Name,
		Units:   c.Units,
		XMin:    c.LatMin,
		XMax:    c.LatMax,
	})
	if err != nil {
		return err
	}
	for _, p := range plotting.Pages(c.Output, plotting.SeasonPageNames(seasons)...) {
		a.saved(p)
	}
	return nil
}
