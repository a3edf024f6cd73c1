package main

import (
	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/plotting"
)

func newClimatologyCmd(a *app) *cobra.Command {
	var modelFile, obsFile, output string
	cmd := &cobra.Command{
		Use:   "climatology",
		Short: "Zonal-mean monthly climatology of model and model minus observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Climatology
			setIfChanged(cmd, "model-file", &c.ModelFile, modelFile)
			setIfChanged(cmd, "obs-file", &c.ObsFile, obsFile)
			setIfChanged(cmd, "output", &c.Output, output)
			if err := c.Validate(); err != nil {
				return err
			}
			return a.runClimatology(c)
		},
	}
	cmd.Flags().StringVar(&modelFile, "model-file", "", "NetCDF file with the model field")
	cmd.Flags().StringVar(&obsFile, "obs-file", "", "NetCDF file with the observed field")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output figure")
	return cmd
}

func (a *app) runClimatology(c config.Climatology) error {
	model, err := a.openField(c.ModelFile, c.ModelVar)
	if err != nil {
		return err
	}
	obs, err := a.openField(c.ObsFile, c.ObsVar)
	if err != nil {
		return err
	}
	clim, err := eval.ZonalClimatology(model, obs, eval.ClimOptions{
		Levels:    c.Levels,
		DiffLimit: c.DiffLimit,
		DiffStep:  c.DiffStep,
		DiffPad:   eval.DefaultClimOptions.DiffPad,
	})
	if err != nil {
		return err
	}
	d := clim.Diag
	attrs := []any{"obsInterpolated", d.Interpolated}
	attrs = append(attrs, d.Model.LogAttrs("model")...)
	attrs = append(attrs, d.Obs.LogAttrs("obs")...)
	attrs = append(attrs, d.Diff.LogAttrs("diff")...)
	a.logger.Info("climatology", attrs...)
	a.metrics.PanelsRendered.Add(2)

	err = plotting.Climatology(c.Output, clim, plotting.ClimatologyOptions{
		ModelTitle: c.ModelTitle,
		DiffTitle:  c.DiffTitle,
		Units:      c.Units,
	})
	if err != nil {
		return err
	}
	a.saved(c.Output)
	return nil
}
