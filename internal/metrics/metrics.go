// Package metrics collects Prometheus metrics for ledgerdesk client
// activity. All Collector methods are safe to call on a nil receiver so
// library code never has to guard its instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Outcomes recorded for list and mutation operations.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Mutation kinds.
const (
	MutationCreate = "create"
	MutationUpdate = "update"
	MutationDelete = "delete"
)

// Collector aggregates store and transport metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	listDuration      *prometheus.HistogramVec
	listTotal         *prometheus.CounterVec
	mutationTotal     *prometheus.CounterVec
	staleDiscarded    *prometheus.CounterVec
	unauthorizedTotal prometheus.Counter
	refdataLookups    *prometheus.CounterVec
}

// NewCollector creates a collector with all metrics registered.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	listDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerdesk_list_duration_seconds",
			Help:    "Latency of listing requests",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to 5.12s
		},
		[]string{"resource"},
	)

	listTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_list_total",
			Help: "Listing requests by outcome",
		},
		[]string{"resource", "outcome"},
	)

	mutationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_mutation_total",
			Help: "Create/update/delete requests by outcome",
		},
		[]string{"resource", "kind", "outcome"},
	)

	staleDiscarded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_stale_listings_discarded_total",
			Help: "Listing responses discarded because the query had moved on",
		},
		[]string{"resource"},
	)

	unauthorizedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerdesk_unauthorized_total",
			Help: "Responses that signaled an expired or invalid session",
		},
	)

	refdataLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_refdata_lookups_total",
			Help: "Reference-data cache lookups by result",
		},
		[]string{"resource", "result"},
	)

	registry.MustRegister(
		listDuration,
		listTotal,
		mutationTotal,
		staleDiscarded,
		unauthorizedTotal,
		refdataLookups,
	)

	return &Collector{
		registry:          registry,
		listDuration:      listDuration,
		listTotal:         listTotal,
		mutationTotal:     mutationTotal,
		staleDiscarded:    staleDiscarded,
		unauthorizedTotal: unauthorizedTotal,
		refdataLookups:    refdataLookups,
	}
}

// ObserveList records one completed listing request.
func (c *Collector) ObserveList(resource, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.listTotal.WithLabelValues(resource, outcome).Inc()
	if outcome == OutcomeStale {
		c.staleDiscarded.WithLabelValues(resource).Inc()
	}
	c.listDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// ObserveMutation records one completed mutation request.
func (c *Collector) ObserveMutation(resource, kind, outcome string) {
	if c == nil {
		return
	}
	c.mutationTotal.WithLabelValues(resource, kind, outcome).Inc()
}

// ObserveUnauthorized records one unauthorized-session signal.
func (c *Collector) ObserveUnauthorized() {
	if c == nil {
		return
	}
	c.unauthorizedTotal.Inc()
}

// ObserveRefdataLookup records one reference-data cache lookup.
func (c *Collector) ObserveRefdataLookup(resource string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.refdataLookups.WithLabelValues(resource, result).Inc()
}

// Handler exposes the collector's registry for embedders that serve a
// metrics endpoint.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Gather returns the current metric families, mainly for tests.
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	if c == nil {
		return nil, nil
	}
	return c.registry.Gather()
}
