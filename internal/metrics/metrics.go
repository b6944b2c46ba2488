// Package metrics provides application-level Prometheus collectors and the
// tracer used around validation runs. Collectors register with the default
// registry at init and are exported by Handler on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

// Tracer is shared by every package that opens spans.
var Tracer = otel.Tracer("github.com/ajitpratap0/adlint")

// Validation counters.
var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adlint_validation_runs_total",
		Help: "Validation runs by outcome (ok, error, load_error).",
	}, []string{"status"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adlint_diagnostics_total",
		Help: "Diagnostics emitted by severity and code.",
	}, []string{"severity", "code"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adlint_validation_duration_seconds",
		Help:    "Wall-clock duration of a validation run.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	EntityWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adlint_entity_writes_total",
		Help: "Entity collection files written through the API.",
	})

	WatchRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adlint_watch_revalidations_total",
		Help: "Re-validations triggered by file changes.",
	})
)

// Inc increments the given counter by 1.
func Inc(counter prometheus.Counter) { counter.Inc() }

// ObserveSince records the time elapsed since start.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }
