package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Remote store metrics
	RemoteOperations *prometheus.CounterVec
	RemoteDuration   *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec

	// Engine metrics
	Votes               *prometheus.CounterVec
	FactMutations       *prometheus.CounterVec
	Comments            *prometheus.CounterVec
	SupersededRefetches prometheus.Counter
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RemoteOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_operations_total",
				Help:      "Total number of remote store operations",
			},
			[]string{"operation", "table", "status"},
		),
		RemoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_operation_duration_seconds",
				Help:      "Remote store operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
		Votes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_total",
				Help:      "Total number of vote requests by field and outcome",
			},
			[]string{"field", "status"},
		),
		FactMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fact_mutations_total",
				Help:      "Total number of fact creates, edits and deletes by outcome",
			},
			[]string{"operation", "status"},
		),
		Comments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comments_total",
				Help:      "Optimistic comment transitions",
			},
			[]string{"state"},
		),
		SupersededRefetches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refetches_superseded_total",
				Help:      "Refetch results discarded because a newer query was issued",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.RemoteOperations,
		c.RemoteDuration,
		c.BreakerState,
		c.Votes,
		c.FactMutations,
		c.Comments,
		c.SupersededRefetches,
	)

	return c
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRemoteOperation records one remote store call.
func (c *Collector) RecordRemoteOperation(operation, table string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.RemoteOperations.WithLabelValues(operation, table, status(err)).Inc()
	c.RemoteDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// SetBreakerState records the breaker state as a gauge value.
func (c *Collector) SetBreakerState(name string, state float64) {
	if c == nil {
		return
	}
	c.BreakerState.WithLabelValues(name).Set(state)
}

// RecordVote records a vote outcome.
func (c *Collector) RecordVote(field string, err error) {
	if c == nil {
		return
	}
	c.Votes.WithLabelValues(field, status(err)).Inc()
}

// RecordFactMutation records a create, edit or delete outcome.
func (c *Collector) RecordFactMutation(operation string, err error) {
	if c == nil {
		return
	}
	c.FactMutations.WithLabelValues(operation, status(err)).Inc()
}

// RecordComment records a transition of an optimistic comment.
func (c *Collector) RecordComment(state string) {
	if c == nil {
		return
	}
	c.Comments.WithLabelValues(state).Inc()
}

// RecordSupersededRefetch counts a discarded refetch.
func (c *Collector) RecordSupersededRefetch() {
	if c == nil {
		return
	}
	c.SupersededRefetches.Inc()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
