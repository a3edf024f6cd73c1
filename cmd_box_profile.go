package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/obsstat"
	"github.com/rtm0/ukcaeval/internal/plotting"
	"github.com/rtm0/ukcaeval/internal/units"
)

func newBoxProfileCmd(a *app) *cobra.Command {
	var modelFile, obsDir, output string
	cmd := &cobra.Command{
		Use:   "box-profile",
		Short: "Model quartile profiles in lat/lon boxes vs aircraft campaigns",
		Long: `For every configured box, takes the model values inside the box in the
campaign month and draws their median and interquartile range per level
against the campaign's observed mean and standard deviation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.BoxProfile
			setIfChanged(cmd, "model-file", &c.ModelFile, modelFile)
			setIfChanged(cmd, "obs-dir", &c.ObsDir, obsDir)
			setIfChanged(cmd, "output", &c.Output, output)
			if err := c.Validate(); err != nil {
				return err
			}
			return a.runBoxProfile(c)
		},
	}
	cmd.Flags().StringVar(&modelFile, "model-file", "", "NetCDF file with the model field")
	cmd.Flags().StringVar(&obsDir, "obs-dir", "", "directory holding the campaign statistics files")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output figure")
	return cmd
}

func (a *app) runBoxProfile(c config.BoxProfile) error {
	f, err := a.openField(c.ModelFile, c.VarName)
	if err != nil {
		return err
	}
	factor, err := units.Factor(c.Species, c.ModelUnits, c.Units)
	if err != nil {
		return err
	}

	panels := make([]plotting.BoxPanel, 0, len(c.Boxes))
	for _, b := range c.Boxes {
		q, err := eval.BoxProfile(f, eval.Box{
			Name:   b.Name,
			LatMin: b.LatMin,
			LatMax: b.LatMax,
			LonMin: b.LonMin,
			LonMax: b.LonMax,
			Year:   b.Year,
		}, b.Month, factor)
		if err != nil {
			return err
		}
		obs, err := obsstat.Read(filepath.Join(c.ObsDir, b.ObsPath))
		if err != nil {
			return err
		}
		a.metrics.FilesRead.Inc()
		panels = append(panels, plotting.BoxPanel{
			Quartiles: q,
			Obs:       obs,
			Options: plotting.BoxProfileOptions{
				Title:     boxTitle(b),
				ModelName: c.ModelName,
				XLabel:    fmt.Sprintf("%s (%s)", c.Species, c.Units),
				XMin:      c.XMin,
				XMax:      c.XMax,
				MaxLevels: b.Levels,
			},
		})
		a.logger.Debug("box profile", "box", b.Name, "levels", len(q.Lev), "obsRows", obs.Len())
	}
	a.metrics.PanelsRendered.Add(float64(len(panels)))

	if err := plotting.BoxProfiles(c.Output, panels, c.Rows, c.Cols); err != nil {
		return err
	}
	a.saved(c.Output)
	return nil
}

func boxTitle(b config.Box) string {
	when := fmt.Sprintf("%02d", b.Month)
	if b.Year > 0 {
		when = fmt.Sprintf("%d %02d", b.Year, b.Month)
	}
	return fmt.Sprintf("%s %s\nLat %g-%g Lon %g-%g", b.Name, when, b.LatMin, b.LatMax, b.LonMin, b.LonMax)
}
