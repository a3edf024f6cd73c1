package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/ncio"
	"github.com/rtm0/ukcaeval/internal/vm"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		file, varName, insertURL string
		level                    float64
		concurrency, perInsert   int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Stream a gridded variable into VictoriaMetrics",
		Long: `Scans the variable one time step at a time and inserts every non-missing grid
point as a sample labelled with its latitude and longitude. The insert URL
selects the wire format: /write for InfluxDB line protocol, /api/v1/import/csv
for CSV.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Export
			setIfChanged(cmd, "file", &c.File, file)
			setIfChanged(cmd, "var", &c.VarName, varName)
			setIfChanged(cmd, "level", &c.Level, level)
			setIfChanged(cmd, "vm-insert-url", &c.VMInsertURL, insertURL)
			setIfChanged(cmd, "concurrency", &c.Concurrency, concurrency)
			setIfChanged(cmd, "recs-per-insert", &c.RecsPerInsert, perInsert)
			if err := c.Validate(); err != nil {
				return err
			}
			return a.runExport(cmd.Context(), c)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a NetCDF file")
	cmd.Flags().StringVar(&varName, "var", "", "variable to export")
	cmd.Flags().Float64Var(&level, "level", 0, "vertical level exported when the variable has one")
	cmd.Flags().StringVar(&insertURL, "vm-insert-url", "", "VictoriaMetrics insert API URL")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent requests to VictoriaMetrics")
	cmd.Flags().IntVar(&perInsert, "recs-per-insert", 0, "number of records sent to VictoriaMetrics in one batch")
	return cmd
}

func (a *app) runExport(ctx context.Context, c config.Export) error {
	vmCli, err := vm.NewClient(a.logger, c.VMInsertURL, c.Concurrency, c.MetricPrefix, c.VarName)
	if err != nil {
		return fmt.Errorf("could not create VictoriaMetrics client: %w", err)
	}
	s, err := ncio.NewScanner(c.File, c.VarName, c.Level)
	if err != nil {
		return fmt.Errorf("could not create scanner: %w", err)
	}
	defer s.Close()
	a.metrics.FilesRead.Inc()
	a.logger.Info("export summary", s.Summary()...)

	recsCh := make(chan []ncio.Record)
	progressCh := make(chan int)
	g, ctx := errgroup.WithContext(ctx)
	for range c.Concurrency {
		g.Go(func() error {
			for recs := range recsCh {
				n := len(recs)
				for begin := 0; begin < n; begin += c.RecsPerInsert {
					if err := vmCli.Insert(ctx, recs[begin:min(begin+c.RecsPerInsert, n)]); err != nil {
						return err
					}
				}
				progressCh <- n
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var inserted int
		total := float64(s.TotalRecCount())
		start := time.Now()
		for n := range progressCh {
			inserted += n
			a.metrics.RecordsExported.Add(float64(n))
			percent := fmt.Sprintf("%.2f%%", 100*float64(inserted)/total)
			a.logger.Info("progress", "inserted", percent, "in", time.Since(start).Round(time.Second))
		}
	}()

scan:
	for s.Scan() {
		select {
		case recsCh <- s.Records():
		case <-ctx.Done():
			break scan
		}
	}
	close(recsCh)
	err = g.Wait()
	close(progressCh)
	<-done
	if err != nil {
		return err
	}
	return s.Err()
}
