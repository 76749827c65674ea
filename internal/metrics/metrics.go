package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/attest-tracker/internal/ingest"
)

const namespace = "attest"

// Metrics owns a private registry so tests and multiple daemons never collide on the default one.
type Metrics struct {
	registry   *prometheus.Registry
	ingests    *prometheus.CounterVec
	tiers      *prometheus.CounterVec
	lineItems  prometheus.Histogram
	queries    *prometheus.CounterVec
	queueDepth prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Documents processed, by outcome.",
		}, []string{"outcome"}),
		tiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "date_tier_total",
			Help:      "Date cascade tier that produced the interval.",
		}, []string{"tier"}),
		lineItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "line_items",
			Help:      "Line items recovered per document.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "runs_total",
			Help:      "Interval queries, by result state.",
		}, []string{"state"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Jobs waiting in the ingest queue.",
		}),
	}
	reg.MustRegister(
		m.ingests, m.tiers, m.lineItems, m.queries, m.queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)
	return m
}

// ObserveIngest implements ingest.Observer.
func (m *Metrics) ObserveIngest(r ingest.Result, err error) {
	outcome := string(r.Outcome)
	if outcome == "" {
		outcome = "failed"
	}
	m.ingests.WithLabelValues(outcome).Inc()
	if err != nil {
		return
	}
	m.tiers.WithLabelValues(r.Interval.Tier.String()).Inc()
	m.lineItems.Observe(float64(r.LineItems))
}

func (m *Metrics) ObserveQuery(state string) {
	m.queries.WithLabelValues(state).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
