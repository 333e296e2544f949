// Package observability exposes the server's process metrics as Prometheus
// collectors, scraped at GET /metrics via promhttp.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every counter and histogram the fleet server publishes. It
// is built once at startup and handed down to every component that needs to
// record an observation.
type Registry struct {
	reg *prometheus.Registry

	AgentsRegistered prometheus.Counter
	PollsServed      prometheus.Counter
	QueueDepth       prometheus.Histogram

	ScanEntriesIngested prometheus.Counter
	ScanParseFailures   prometheus.Counter

	PathPlanDuration prometheus.Histogram
	PathPlanOutcome  *prometheus.CounterVec

	CommandsByKind *prometheus.CounterVec
}

// NewRegistry builds a fresh metrics registry. Each server process owns
// exactly one; there is no package-level global.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		AgentsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "turtlefleet_agents_registered_total",
			Help: "Total number of agent registrations accepted.",
		}),
		PollsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "turtlefleet_polls_served_total",
			Help: "Total number of agent poll requests served.",
		}),
		QueueDepth: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "turtlefleet_queue_depth",
			Help:    "Command queue depth observed at drain time.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		ScanEntriesIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "turtlefleet_scan_entries_ingested_total",
			Help: "Total number of well-formed scan entries ingested into the world model.",
		}),
		ScanParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "turtlefleet_scan_parse_failures_total",
			Help: "Total number of scan entries that failed coordinate parsing.",
		}),
		PathPlanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "turtlefleet_path_plan_duration_seconds",
			Help:    "Wall-clock duration of A* path-planning calls.",
			Buckets: prometheus.DefBuckets,
		}),
		PathPlanOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turtlefleet_path_plan_outcome_total",
			Help: "Path-planning calls by outcome (found/not_found).",
		}, []string{"outcome"}),
		CommandsByKind: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turtlefleet_task_commands_total",
			Help: "Task planner commands processed, by kind.",
		}, []string{"kind"}),
	}
}

// Gatherer exposes the underlying *prometheus.Registry for wiring into
// promhttp.HandlerFor.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveCommand implements task.Metrics.
func (r *Registry) ObserveCommand(kind string) {
	r.CommandsByKind.WithLabelValues(kind).Inc()
}

// ObservePathPlanning implements task.Metrics.
func (r *Registry) ObservePathPlanning(d time.Duration, found bool) {
	r.PathPlanDuration.Observe(d.Seconds())
	outcome := "not_found"
	if found {
		outcome = "found"
	}
	r.PathPlanOutcome.WithLabelValues(outcome).Inc()
}

// ObserveIngest records a World.Ingest call's result counts.
func (r *Registry) ObserveIngest(ingested, failed int) {
	r.ScanEntriesIngested.Add(float64(ingested))
	r.ScanParseFailures.Add(float64(failed))
}

// ObserveRegister records a successful agent registration.
func (r *Registry) ObserveRegister() {
	r.AgentsRegistered.Inc()
}

// ObservePoll records a served poll and the queue depth it drained.
func (r *Registry) ObservePoll(queueDepth int) {
	r.PollsServed.Inc()
	r.QueueDepth.Observe(float64(queueDepth))
}
