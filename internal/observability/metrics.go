package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "ukcaeval"

// Metrics holds the counters of one command run. They live on a private
// registry and reach Prometheus only through Push.
type Metrics struct {
	registry *prometheus.Registry

	FilesRead       prometheus.Counter
	PanelsRendered  prometheus.Counter
	PanelErrors     prometheus.Counter
	FiguresWritten  prometheus.Counter
	RecordsExported prometheus.Counter
	RunDuration     prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewMetrics creates the run metrics on a fresh registry, so tests and
// repeated runs in one process never collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_read_total",
			Help:      "Input files opened (NetCDF, CSV and statistics tables).",
		}),
		PanelsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panels_rendered_total",
			Help:      "Figure panels computed and drawn.",
		}),
		PanelErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panel_errors_total",
			Help:      "Panels replaced by an error panel.",
		}),
		FiguresWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "figures_written_total",
			Help:      "Figure and NetCDF output files written.",
		}),
		RecordsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_exported_total",
			Help:      "Grid-point records sent to VictoriaMetrics.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
	m.registry.MustRegister(
		m.FilesRead,
		m.PanelsRendered,
		m.PanelErrors,
		m.FiguresWritten,
		m.RecordsExported,
		m.RunDuration,
		m.LastSuccess,
	)
	return m
}

// Registry exposes the private registry, for tests and Push.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Finish records the run duration and, when ok, the success timestamp.
func (m *Metrics) Finish(start time.Time, ok bool) {
	now := clock.Now()
	m.RunDuration.Set(now.Sub(start).Seconds())
	if ok {
		m.LastSuccess.Set(float64(now.Unix()))
	}
}

// Push sends the metrics to a Prometheus Pushgateway at url under job,
// grouped by command.
func (m *Metrics) Push(ctx context.Context, url, job, command string) error {
	err := push.New(url, job).
		Gatherer(m.registry).
		Grouping("command", command).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
