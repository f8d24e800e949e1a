// Package metrics exposes engine-internal Prometheus counters and
// gauges for self-observability. Unlike the teacher codebase this was
// adapted from — which used prometheus/client_golang as an API client
// querying an external Prometheus server about the system under test —
// this engine has no such external target to query, so the same
// library is used in its more common exposition role: instrumenting the
// engine's own scheduling loop, served via promhttp for an operator's
// own Prometheus to scrape.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the counters/gauges every scheduler reports into,
// labeled by system name.
type Registry struct {
	TicksTotal           *prometheus.CounterVec
	EventsEvaluatedTotal *prometheus.CounterVec
	EventsFiredTotal     *prometheus.CounterVec
	ActionsDispatched    *prometheus.CounterVec
	ActionsMissingTotal  *prometheus.CounterVec
	WorkersInFlight      *prometheus.GaugeVec
}

// NewRegistry registers the engine's metric families against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		TicksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faultsched_ticks_total",
			Help: "Number of scheduler ticks run, per system under test.",
		}, []string{"system"}),
		EventsEvaluatedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faultsched_events_evaluated_total",
			Help: "Number of events evaluated during checkpoints, per system under test.",
		}, []string{"system"}),
		EventsFiredTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faultsched_events_fired_total",
			Help: "Number of events that fired during checkpoints, per system under test.",
		}, []string{"system"}),
		ActionsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faultsched_actions_dispatched_total",
			Help: "Number of fault actions dispatched to a worker, per system under test and fault name.",
		}, []string{"system", "fault"}),
		ActionsMissingTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faultsched_actions_missing_total",
			Help: "Number of firings dropped because the fault name could not be resolved.",
		}, []string{"system", "fault"}),
		WorkersInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "faultsched_workers_in_flight",
			Help: "Number of fault-action workers currently running, per system under test.",
		}, []string{"system"}),
	}
}

// Serve starts an HTTP server exposing reg's metrics at /metrics on
// addr. It blocks; call it in its own goroutine. A non-nil error other
// than http.ErrServerClosed indicates the listener failed.
func Serve(addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}
	return server.ListenAndServe()
}
