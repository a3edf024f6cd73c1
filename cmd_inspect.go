package main

import (
	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/ncio"
	"github.com/rtm0/ukcaeval/internal/plotting"
	"github.com/rtm0/ukcaeval/internal/stats"
)

func newInspectCmd(a *app) *cobra.Command {
	var variable, surface string
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Describe a NetCDF file and optionally map one variable",
		Long: `Logs the dimensions and variables of FILE with their units and long names.
With --var the variable's range and missing-value count are logged as well,
and with --surface its first time step at the lowest level is drawn as a
map.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(args[0], variable, surface)
		},
	}
	cmd.Flags().StringVar(&variable, "var", "", "variable name or long_name fragment to summarise")
	cmd.Flags().StringVar(&surface, "surface", "", "write a surface map of --var to this file")
	return cmd
}

func (a *app) runInspect(path, variable, surface string) error {
	ds, err := ncio.Open(path)
	if err != nil {
		return err
	}
	defer ds.Close()
	a.metrics.FilesRead.Inc()
	a.logger.Info("dataset", ds.Summary()...)
	for _, name := range ds.Variables() {
		dims, attrs, err := ds.Describe(name)
		if err != nil {
			return err
		}
		a.logger.Info("variable", "name", name, "dims", dims, "units", attrs["units"], "longName", attrs["long_name"])
	}
	if variable == "" {
		return nil
	}

	name, err := resolveVar(ds, variable)
	if err != nil {
		return err
	}
	f, err := ds.Field(name)
	if err != nil {
		return err
	}
	a.logger.Info("summary", append([]any{"var", name, "shape", f.Shape()}, stats.Summarize(f.Data).LogAttrs("data")...)...)
	if surface == "" {
		return nil
	}
	if err := plotting.SurfaceOf(surface, f, ""); err != nil {
		return err
	}
	a.saved(surface)
	return nil
}
