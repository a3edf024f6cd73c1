package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/plotting"
)

func newSatelliteCmd(a *app) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "satellite",
		Short: "Area-weighted latitude-band time series of models vs a satellite product",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Satellite
			setIfChanged(cmd, "output-dir", &c.OutputDir, outputDir)
			if err := c.Validate(); err != nil {
				return err
			}
			return a.runSatellite(cmd.Context(), c)
		},
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for the per-band figures")
	return cmd
}

func (a *app) runSatellite(ctx context.Context, c config.Satellite) error {
	srcs, err := a.openSources(ctx, append([]config.Source{c.Obs}, c.Models...))
	if err != nil {
		return err
	}
	var sigma *field.Field
	if c.SigmaVar != "" {
		if sigma, err = a.openField(c.Obs.File, c.SigmaVar); err != nil {
			return err
		}
	}
	bands := make([]eval.Band, len(c.Bands))
	for i, b := range c.Bands {
		bands[i] = eval.Band{LatMin: b.LatMin, LatMax: b.LatMax}
	}

	series, err := eval.LatBandSeries(srcs[0].Field, sigma, c.Obs.Name, srcs[1:], bands)
	if err != nil {
		return err
	}
	for _, bs := range series {
		path := filepath.Join(c.OutputDir, bandFile(c.Obs.Name, bs.Band))
		err := plotting.LatBand(path, bs, plotting.BandOptions{
			Title: fmt.Sprintf("Model vs %s, latitude: %s deg", c.Obs.Name, bs.Band),
			Units: c.Units,
			YMin:  c.YMin,
			YMax:  c.YMax,
		})
		if err != nil {
			return err
		}
		a.metrics.PanelsRendered.Inc()
		a.saved(path)
	}
	return nil
}

// bandFile names the figure of one band, e.g. model_vs_omi_ozone_lat_-30_30.png.
func bandFile(obsName string, b eval.Band) string {
	slug := strings.ToLower(strings.Join(strings.Fields(obsName), "_"))
	return fmt.Sprintf("model_vs_%s_ozone_lat_%g_%g.png", slug, b.LatMin, b.LatMax)
}
