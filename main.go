package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtm0/ukcaeval/internal/config"
	"github.com/rtm0/ukcaeval/internal/observability"
)

// app carries the state shared by every subcommand of one run.
type app struct {
	cfgFile     string
	logLevel    string
	logFormat   string
	pushgateway string

	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	start   time.Time
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ukcaeval",
		Short: "Evaluate UKCA chemistry-climate model output against observations",
		Long: `ukcaeval compares gridded model output with station, aircraft-campaign and
satellite observations and renders the comparison figures.

Every subcommand reads its section of the YAML config file; flags override
the file. LOG_LEVEL, LOG_FORMAT and PUSHGATEWAY_URL override the file too.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			setIfChanged(cmd, "log-level", &cfg.LogLevel, a.logLevel)
			setIfChanged(cmd, "log-format", &cfg.LogFormat, a.logFormat)
			setIfChanged(cmd, "pushgateway", &cfg.Pushgateway, a.pushgateway)
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
			a.metrics = observability.NewMetrics()
			a.start = observability.Now()
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "Log format: text or json")
	root.PersistentFlags().StringVar(&a.pushgateway, "pushgateway", "", "Prometheus Pushgateway URL for run metrics")

	root.AddCommand(
		newSeasonalCmd(a),
		newBoxProfileCmd(a),
		newProfilesCmd(a),
		newClimatologyCmd(a),
		newSeasonalZonalCmd(a),
		newDobsonCmd(a),
		newSatelliteCmd(a),
		newInspectCmd(a),
		newExportCmd(a),
		newVerticalCmd(a),
	)
	return root
}

// setIfChanged copies a flag value over a config value when the flag was
// given on the command line.
func setIfChanged[T any](cmd *cobra.Command, name string, dst *T, v T) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

// finish records the run outcome and pushes the metrics when a Pushgateway
// is configured.
func (a *app) finish(command string, ok bool) {
	a.metrics.Finish(a.start, ok)
	a.logger.Info("run finished", "command", command, "ok", ok, "in", observability.Now().Sub(a.start).Round(time.Millisecond))
	if a.cfg.Pushgateway == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.metrics.Push(ctx, a.cfg.Pushgateway, "ukcaeval", command); err != nil {
		a.logger.Warn("Could not push run metrics", "err", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	cmd, err := newRootCmd(a).ExecuteContextC(ctx)
	stop()

	if a.logger == nil {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	a.finish(cmd.Name(), err == nil)
	if err != nil {
		a.logger.Error("command failed", "command", cmd.Name(), "err", err)
		os.Exit(1)
	}
}
