// Package metrics exposes the fetcher's Prometheus instruments. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rendr"

// Lookup kinds.
const (
	KindEntity     = "entity"
	KindCollection = "collection"
)

// Revalidation outcomes.
const (
	RevalidationChanged   = "changed"
	RevalidationUnchanged = "unchanged"
	RevalidationError     = "error"
	RevalidationThrottled = "throttled"
	RevalidationLimited   = "limited"
)

// Metrics groups the collectors.
type Metrics struct {
	lookups       *prometheus.CounterVec
	remote        *prometheus.CounterVec
	revalidations *prometheus.CounterVec
	pending       prometheus.Gauge
	batch         prometheus.Histogram
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by resource kind and result.",
		}, []string{"kind", "result"}),
		remote: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_fetches_total",
			Help:      "Remote fetches by type and outcome.",
		}, []string{"type", "outcome"}),
		revalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revalidations_total",
			Help:      "Background freshness checks by outcome.",
		}, []string{"result"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_fetches",
			Help:      "Fetch batches currently in flight.",
		}),
		batch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of fetch batches.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.lookups, m.remote, m.revalidations, m.pending, m.batch)
	}
	return m
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(kind, result).Inc()
}

// RemoteFetch records one remote call.
func (m *Metrics) RemoteFetch(typ string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.remote.WithLabelValues(typ, outcome).Inc()
}

// Revalidation records a background check outcome.
func (m *Metrics) Revalidation(result string) {
	if m == nil {
		return
	}
	m.revalidations.WithLabelValues(result).Inc()
}

// BatchStarted marks a fetch batch as in flight.
func (m *Metrics) BatchStarted() {
	if m == nil {
		return
	}
	m.pending.Inc()
}

// BatchFinished marks a batch as done after d.
func (m *Metrics) BatchFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.pending.Dec()
	m.batch.Observe(d.Seconds())
}
