// Package metrics holds the Prometheus instruments of the store.
//
// Instruments are created and registered with the default registry on first
// use, so packages that never record anything never register anything.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsStore struct {
	once sync.Once

	quadsAdded   prometheus.Counter
	quadsRemoved prometheus.Counter
	queries      *prometheus.CounterVec
	updates      prometheus.Counter
	failures     *prometheus.CounterVec

	queryDuration prometheus.Histogram
	loadDuration  prometheus.Histogram
}

var storeMetrics metricsStore

func (m *metricsStore) init() {
	m.once.Do(func() {
		m.quadsAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "rdfstore_quads_added_total", Help: "Quads newly inserted"})
		m.quadsRemoved = prometheus.NewCounter(prometheus.CounterOpts{Name: "rdfstore_quads_removed_total", Help: "Quads deleted"})
		m.queries = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rdfstore_queries_total", Help: "SPARQL queries evaluated, by form"}, []string{"form"})
		m.updates = prometheus.NewCounter(prometheus.CounterOpts{Name: "rdfstore_updates_total", Help: "SPARQL update requests applied"})
		m.failures = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rdfstore_failures_total", Help: "Failed operations, by error code"}, []string{"code"})

		buckets := []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.queryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "rdfstore_query_seconds", Help: "Query evaluation time", Buckets: buckets})
		m.loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "rdfstore_load_seconds", Help: "Document load time", Buckets: buckets})

		prometheus.MustRegister(
			m.quadsAdded, m.quadsRemoved,
			m.queries, m.updates, m.failures,
			m.queryDuration, m.loadDuration,
		)
	})
}

// record helpers

func RecordQuadsAdded(n int) {
	storeMetrics.init()
	storeMetrics.quadsAdded.Add(float64(n))
}

func RecordQuadsRemoved(n int) {
	storeMetrics.init()
	storeMetrics.quadsRemoved.Add(float64(n))
}

func RecordQuery(form string, d time.Duration) {
	storeMetrics.init()
	storeMetrics.queries.WithLabelValues(form).Inc()
	storeMetrics.queryDuration.Observe(d.Seconds())
}

func RecordUpdate() {
	storeMetrics.init()
	storeMetrics.updates.Inc()
}

func RecordFailure(code string) {
	storeMetrics.init()
	storeMetrics.failures.WithLabelValues(code).Inc()
}

func RecordLoad(d time.Duration) {
	storeMetrics.init()
	storeMetrics.loadDuration.Observe(d.Seconds())
}

// Sample is one gathered value. Histograms report their sample count.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshot gathers every rdfstore_ metric from the default registry,
// sorted by name.
func Snapshot() ([]Sample, error) {
	storeMetrics.init()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		name := mf.GetName()
		if len(name) < 9 || name[:9] != "rdfstore_" {
			continue
		}
		for _, m := range mf.GetMetric() {
			s := Sample{Name: name, Labels: map[string]string{}}
			for _, lp := range m.GetLabel() {
				s.Labels[lp.GetName()] = lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				s.Value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				s.Value = float64(m.GetHistogram().GetSampleCount())
			case m.GetGauge() != nil:
				s.Value = m.GetGauge().GetValue()
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
