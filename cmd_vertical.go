package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/plotting"
)

func newVerticalCmd(a *app) *cobra.Command {
	var modelFile, obsFile, species string
	cmd := &cobra.Command{
		Use:   "vertical",
		Short: "Domain-mean vertical profile of one species, model vs observations",
		Long: `Averages the species over time and, area weighted, over the horizontal domain
in both files and overlays the two profiles against the vertical coordinate.
The figure is written to <output_dir>/<species>_profile.png.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Vertical
			setIfChanged(cmd, "model-file", &c.ModelFile, modelFile)
			setIfChanged(cmd, "obs-file", &c.ObsFile, obsFile)
			setIfChanged(cmd, "species", &c.Species, species)
			if err := c.Validate(); err != nil {
				return err
			}
			return a.runVertical(c)
		},
	}
	cmd.Flags().StringVar(&modelFile, "model-file", "", "NetCDF model file")
	cmd.Flags().StringVar(&obsFile, "obs-file", "", "NetCDF observation file")
	cmd.Flags().StringVar(&species, "species", "", "species to plot, e.g. O3")
	return cmd
}

func (a *app) runVertical(c config.Vertical) error {
	model, err := a.openField(c.ModelFile, c.Species)
	if err != nil {
		return err
	}
	obs, err := a.openField(c.ObsFile, c.Species)
	if err != nil {
		return err
	}
	modelLev, modelProf, err := eval.DomainProfile(model)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	obsLev, obsProf, err := eval.DomainProfile(obs)
	if err != nil {
		return fmt.Errorf("obs: %w", err)
	}

	out := filepath.Join(c.OutputDir, c.Species+"_profile.png")
	err = plotting.Vertical(out, modelLev, modelProf, obsLev, obsProf, plotting.VerticalOptions{
		Title:  c.Species + " Profile",
		XLabel: fmt.Sprintf("%s (%s)", c.Species, model.Units),
		YLabel: "Pressure (hPa)",
	})
	if err != nil {
		return err
	}
	a.metrics.PanelsRendered.Inc()
	a.saved(out)
	return nil
}
