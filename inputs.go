package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/ncio"
	"github.com/rtm0/ukcaeval/internal/stats"
)

// openField reads one variable from a NetCDF file. variable is a variable
// name, matched without regard to case, or failing that a fragment of exactly
// one variable's long_name.
func (a *app) openField(path, variable string) (*field.Field, error) {
	ds, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	a.metrics.FilesRead.Inc()
	a.logger.Debug("dataset", ds.Summary()...)

	name, err := resolveVar(ds, variable)
	if err != nil {
		return nil, err
	}
	f, err := ds.Field(name)
	if err != nil {
		return nil, err
	}
	attrs := []any{"file", path, "var", name, "dims", f.Dims, "units", f.Units}
	a.logger.Info("loaded field", append(attrs, stats.Summarize(f.Data).LogAttrs("data")...)...)
	return f, nil
}

func resolveVar(ds *ncio.Dataset, variable string) (string, error) {
	vars := ds.Variables()
	if slices.Contains(vars, variable) {
		return variable, nil
	}
	if i := slices.IndexFunc(vars, func(v string) bool { return strings.EqualFold(v, variable) }); i >= 0 {
		return vars[i], nil
	}
	return ds.FindByLongName(variable)
}

// openSources reads every source concurrently, keeping their order.
func (a *app) openSources(ctx context.Context, srcs []config.Source) ([]eval.Named, error) {
	out := make([]eval.Named, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, s := range srcs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := a.openField(s.File, s.Var)
			if err != nil {
				return fmt.Errorf("%s: %w", s.Name, err)
			}
			out[i] = eval.Named{Name: s.Name, Field: f}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// saved logs an output file and counts it.
func (a *app) saved(path string) {
	a.metrics.FiguresWritten.Inc()
	a.logger.Info("saved", "path", path)
}
