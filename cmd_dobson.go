package main

import (
	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/dobson"
	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/ncio"
	"github.com/rtm0/ukcaeval/internal/stats"
)

func newDobsonCmd(a *app) *cobra.Command {
	var (
		input, output, format string
		tropoOnly             bool
	)
	cmd := &cobra.Command{
		Use:   "dobson",
		Short: "Convert ozone mass mixing ratio to a column in Dobson Units",
		Long: `Reads the ozone mass mixing ratio and the air mass per grid cell, optionally
the tropospheric mask, and writes the ozone column in DU to a new NetCDF
file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Dobson
			setIfChanged(cmd, "input-file", &c.Input, input)
			setIfChanged(cmd, "output-file", &c.Output, output)
			setIfChanged(cmd, "tropo-only", &c.TropoOnly, tropoOnly)
			setIfChanged(cmd, "format", &c.Format, format)
			if err := c.Validate(); err != nil {
				return err
			}
			return a.runDobson(c)
		},
	}
	cmd.Flags().StringVarP(&input, "input-file", "i", "", "input file to process")
	cmd.Flags().StringVarP(&output, "output-file", "o", "", "transformed output file")
	cmd.Flags().BoolVarP(&tropoOnly, "tropo-only", "t", false, "apply the troposphere-only mask")
	cmd.Flags().StringVarP(&format, "format", "f", "DU", "units to convert to")
	return cmd
}

func (a *app) runDobson(c config.Dobson) error {
	ds, err := ncio.Open(c.Input)
	if err != nil {
		return err
	}
	defer ds.Close()
	a.metrics.FilesRead.Inc()
	a.logger.Info("dataset", ds.Summary()...)

	read := func(longName string) (*field.Field, error) {
		name, err := ds.FindByLongName(longName)
		if err != nil {
			return nil, err
		}
		return ds.Field(name)
	}
	o3, err := read(dobson.O3LongName)
	if err != nil {
		return err
	}
	airMass, err := read(dobson.AirMassLongName)
	if err != nil {
		return err
	}
	var mask *field.Field
	if c.TropoOnly {
		if mask, err = read(dobson.TropoMaskName); err != nil {
			return err
		}
	}

	col, err := dobson.Column(o3, airMass, mask)
	if err != nil {
		return err
	}
	a.logger.Info("ozone column", append([]any{"longName", col.LongName}, stats.Summarize(col.Data).LogAttrs("du")...)...)
	if err := ncio.WriteField(c.Output, col); err != nil {
		return err
	}
	a.saved(c.Output)
	return nil
}
