package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusOk      = "ok"
	StatusPartial = "partial"
	StatusError   = "error"
)

type Metrics struct {
	Queries            *prometheus.CounterVec
	QueryDuration      *prometheus.HistogramVec
	SegmentOutcomes    *prometheus.CounterVec
	SegmentDuration    prometheus.Histogram
	GroupByStrategy    *prometheus.CounterVec
	DocsMatched        prometheus.Counter
	ResponseBytes      *prometheus.CounterVec
	RegisteredSegments prometheus.Gauge
}

// NewMetrics creates and registers all collectors with reg
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {

	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Queries executed by status",
	}, []string{"resource", "status"})

	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Wall time of instance level query execution",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"resource"})

	segmentOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "segment_outcomes_total",
		Help:      "Per segment execution outcomes",
	}, []string{"status"})

	segmentDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "segment_duration_seconds",
		Help:      "Time spent executing one segment plan",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
	})

	groupByStrategy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "group_by_strategy_total",
		Help:      "Segments aggregated per group by key space strategy",
	}, []string{"strategy"})

	docsMatched := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "docs_matched_total",
		Help:      "Documents that passed the filter",
	})

	responseBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "response_bytes_total",
		Help:      "Encoded data table bytes by codec",
	}, []string{"codec"})

	registeredSegments := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registered_segments",
		Help:      "Segments known to the instance",
	})

	reg.MustRegister(queries, queryDuration, segmentOutcomes, segmentDuration, groupByStrategy, docsMatched, responseBytes, registeredSegments)

	return &Metrics{
		Queries:            queries,
		QueryDuration:      queryDuration,
		SegmentOutcomes:    segmentOutcomes,
		SegmentDuration:    segmentDuration,
		GroupByStrategy:    groupByStrategy,
		DocsMatched:        docsMatched,
		ResponseBytes:      responseBytes,
		RegisteredSegments: registeredSegments,
	}
}

func (m *Metrics) ObserveQuery(resource, status string, took time.Duration) {
	m.Queries.WithLabelValues(resource, status).Inc()
	m.QueryDuration.WithLabelValues(resource).Observe(took.Seconds())
}

func (m *Metrics) ObserveSegment(status string, took time.Duration) {
	m.SegmentOutcomes.WithLabelValues(status).Inc()
	m.SegmentDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveStrategies(strategies map[string]int) {
	for name, n := range strategies {
		m.GroupByStrategy.WithLabelValues(name).Add(float64(n))
	}
}
