package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/obsstat"
	"github.com/rtm0/ukcaeval/internal/plotting"
)

func newProfilesCmd(a *app) *cobra.Command {
	var modelDir, obsDir, output string
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Vertical profiles from matched model and observation statistics files",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Profiles
			setIfChanged(cmd, "model-dir", &c.ModelDir, modelDir)
			setIfChanged(cmd, "obs-dir", &c.ObsDir, obsDir)
			setIfChanged(cmd, "output", &c.Output, output)
			if err := c.Validate(); err != nil {
				return err
			}
			return a.runProfiles(c)
		},
	}
	cmd.Flags().StringVar(&modelDir, "model-dir", "", "directory of model statistics files")
	cmd.Flags().StringVar(&obsDir, "obs-dir", "", "directory of observation statistics files")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output figure")
	return cmd
}

func (a *app) runProfiles(c config.Profiles) error {
	pairs, err := obsstat.MatchByBasename(c.ModelDir, c.ObsDir, c.ModelSuffix, c.ObsSuffix)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no *%s file in %s has a matching *%s file in %s",
			c.ModelSuffix, c.ModelDir, c.ObsSuffix, c.ObsDir)
	}
	a.logger.Info("matched statistics files", "pairs", len(pairs))

	panels := make([]plotting.ProfilePanel, len(pairs))
	for i, p := range pairs {
		if panels[i].Model, err = obsstat.Read(p.Model); err != nil {
			return err
		}
		if panels[i].Obs, err = obsstat.Read(p.Obs); err != nil {
			return err
		}
		a.metrics.FilesRead.Add(2)
	}
	if drawn := c.Rows * c.Cols; len(panels) > drawn {
		a.logger.Warn("more pairs than panels, extra pairs dropped", "pairs", len(panels), "panels", drawn)
	}
	a.metrics.PanelsRendered.Add(float64(min(len(panels), c.Rows*c.Cols)))

	err = plotting.VerticalProfiles(c.Output, panels, plotting.ProfilesOptions{
		Rows:      c.Rows,
		Cols:      c.Cols,
		ModelName: c.ModelName,
		XLabel:    c.Species,
	})
	if err != nil {
		return err
	}
	a.saved(c.Output)
	return nil
}
