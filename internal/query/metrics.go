package query

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics observes cache effectiveness and backend latency. A nil *Metrics is valid.
type Metrics struct {
	hits     *prometheus.CounterVec
	misses   *prometheus.CounterVec
	fetches  *prometheus.HistogramVec
	failures *prometheus.CounterVec
	stale    prometheus.Counter
}

// NewMetrics registers the query collectors. Collectors already registered on
// reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garment_reports_cache_hits_total",
			Help: "Report responses served from the shared cache tier.",
		}, []string{"tier", "endpoint"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garment_reports_cache_miss_total",
			Help: "Report requests that reached the backend.",
		}, []string{"endpoint"}),
		fetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "garment_reports_fetch_duration_seconds",
			Help:    "Duration of backend report fetches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garment_reports_fetch_failures_total",
			Help: "Backend report fetches that ended in error after retries.",
		}, []string{"endpoint"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garment_reports_stale_discarded_total",
			Help: "Responses that settled after their page moved on to another key.",
		}),
	}
	for _, collector := range []prometheus.Collector{m.hits, m.misses, m.fetches, m.failures, m.stale} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, fmt.Errorf("query metrics: %w", err)
			}
			if err := m.adopt(collector, already.ExistingCollector); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) adopt(fresh, existing prometheus.Collector) error {
	switch c := existing.(type) {
	case *prometheus.CounterVec:
		switch fresh {
		case m.hits:
			m.hits = c
		case m.misses:
			m.misses = c
		default:
			m.failures = c
		}
	case *prometheus.HistogramVec:
		m.fetches = c
	case prometheus.Counter:
		m.stale = c
	default:
		return fmt.Errorf("query metrics: unexpected collector type %T", c)
	}
	return nil
}

func (m *Metrics) recordHit(tier, endpoint string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(tier, endpoint).Inc()
}

func (m *Metrics) recordMiss(endpoint string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) observeFetch(endpoint string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(endpoint).Observe(d.Seconds())
	if err != nil {
		m.failures.WithLabelValues(endpoint).Inc()
	}
}

func (m *Metrics) recordStale() {
	if m == nil {
		return
	}
	m.stale.Inc()
}
