// Package metrics defines the Prometheus metrics recorded during a fetch run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeFetched     = "fetched"
	OutcomeNotModified = "not_modified"
	OutcomeError       = "error"
)

// Metrics holds all Prometheus metrics for a fetch run.
type Metrics struct {
	Fetches       *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	ItemsAppended prometheus.Counter
	CacheWrites   *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedlog_fetches_total",
		Help: "Feed fetches by outcome",
	}, []string{"outcome"})

	fetchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedlog_fetch_duration_seconds",
		Help:    "Time spent on a single feed request",
		Buckets: prometheus.DefBuckets,
	})

	itemsAppended := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedlog_items_appended_total",
		Help: "Items appended to the item log",
	})

	cacheWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedlog_cache_writes_total",
		Help: "Metadata cache writes by result",
	}, []string{"result"})

	reg.MustRegister(fetches, fetchDuration, itemsAppended, cacheWrites)

	return &Metrics{
		Fetches:       fetches,
		FetchDuration: fetchDuration,
		ItemsAppended: itemsAppended,
		CacheWrites:   cacheWrites,
	}
}

// NewNop returns metrics registered with a throwaway registry.
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
