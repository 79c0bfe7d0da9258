// Package metrics exposes Prometheus instruments for the extension
// lifecycle on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder receives lifecycle observations.
type Recorder interface {
	ObserveInstall(result string, d time.Duration)
	ObserveRemove(result string)
	ObserveUpdate(status string)
	ObserveRun(result string, d time.Duration)
	IncNotify()
}

// Noop implements Recorder without emitting anything.
type Noop struct{}

func (Noop) ObserveInstall(string, time.Duration) {}
func (Noop) ObserveRemove(string)                 {}
func (Noop) ObserveUpdate(string)                 {}
func (Noop) ObserveRun(string, time.Duration)     {}
func (Noop) IncNotify()                           {}

// Prom implements Recorder backed by Prometheus collectors.
type Prom struct {
	registry        *prometheus.Registry
	installs        *prometheus.CounterVec
	installDuration prometheus.Histogram
	removals        *prometheus.CounterVec
	updates         *prometheus.CounterVec
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	notifications   prometheus.Counter
}

// NewProm registers every instrument under namespace on a fresh registry
// that also carries the Go runtime and process collectors.
func NewProm(namespace string) *Prom {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Prom{
		registry: reg,
		installs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extension_installs_total",
			Help:      "Extension installs by result",
		}, []string{"result"}),
		installDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extension_install_duration_seconds",
			Help:      "Time to download, verify and install one extension",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		removals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extension_removals_total",
			Help:      "Extension removals by result",
		}, []string{"result"}),
		updates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extension_updates_total",
			Help:      "Per-extension update outcomes by status",
		}, []string{"status"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extension_runs_total",
			Help:      "Extension invocations by result",
		}, []string{"result"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extension_run_duration_seconds",
			Help:      "Time spent loading and calling an extension",
			Buckets:   prometheus.DefBuckets,
		}),
		notifications: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Extensions-updated events published",
		}),
	}
}

func (p *Prom) ObserveInstall(result string, d time.Duration) {
	p.installs.WithLabelValues(result).Inc()
	p.installDuration.Observe(d.Seconds())
}

func (p *Prom) ObserveRemove(result string) {
	p.removals.WithLabelValues(result).Inc()
}

func (p *Prom) ObserveUpdate(status string) {
	p.updates.WithLabelValues(status).Inc()
}

func (p *Prom) ObserveRun(result string, d time.Duration) {
	p.runs.WithLabelValues(result).Inc()
	p.runDuration.Observe(d.Seconds())
}

func (p *Prom) IncNotify() {
	p.notifications.Inc()
}

// Registry returns the registry the instruments live on.
func (p *Prom) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
