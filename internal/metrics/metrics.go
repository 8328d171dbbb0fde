// Package metrics defines the Prometheus collectors for the generation
// pipeline and exposes a scrape endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	PagesProcessedTotal *prometheus.CounterVec
	PageDuration        prometheus.Histogram
	FaqsGeneratedTotal  *prometheus.CounterVec
	LLMAttemptsTotal    *prometheus.CounterVec
	VectorUpsertsTotal  prometheus.Counter
	CrossLinksEnqueued  prometheus.Counter
	DriftRepairsTotal   prometheus.Counter
	QueueDepth          *prometheus.GaugeVec
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	m := &Metrics{
		PagesProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikifaq_pages_processed_total",
				Help: "Pages taken to a terminal queue status, by outcome.",
			},
			[]string{"outcome"},
		),
		PageDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wikifaq_page_duration_seconds",
				Help:    "Wall-clock time of one page's two-pass pipeline.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		FaqsGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikifaq_faqs_generated_total",
				Help: "FAQ records persisted, by generation pass.",
			},
			[]string{"pass"},
		),
		LLMAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikifaq_llm_attempts_total",
				Help: "LLM call attempts, by pass and result.",
			},
			[]string{"pass", "result"},
		),
		VectorUpsertsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wikifaq_vector_upserts_total",
				Help: "Vector records upserted into the index.",
			},
		),
		CrossLinksEnqueued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wikifaq_cross_links_enqueued_total",
				Help: "New queue entries discovered through cross-links.",
			},
		),
		DriftRepairsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wikifaq_drift_repairs_total",
				Help: "FaqRecords whose vector success flag was repaired.",
			},
		),
		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wikifaq_queue_depth",
				Help: "Processing queue rows by status.",
			},
			[]string{"status"},
		),
	}

	prometheus.MustRegister(
		m.PagesProcessedTotal,
		m.PageDuration,
		m.FaqsGeneratedTotal,
		m.LLMAttemptsTotal,
		m.VectorUpsertsTotal,
		m.CrossLinksEnqueued,
		m.DriftRepairsTotal,
		m.QueueDepth,
	)
	return m
}
