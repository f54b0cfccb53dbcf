// Package metrics exposes query and corpus metrics in Prometheus format.
//
// Prometheus will scrape /metrics and you'll see data like:
//
//	# HELP circulars_queries_total Queries handled, by outcome.
//	# TYPE circulars_queries_total counter
//	circulars_queries_total{outcome="answered"} 412
//	circulars_queries_total{outcome="needs_clarification"} 37
//
//	# HELP circulars_corpus_documents Documents in the serving snapshot.
//	# TYPE circulars_corpus_documents gauge
//	circulars_corpus_documents 118
package metrics

import (
	"net/http"
	"time"

	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "circulars"

// Recorder records query outcomes and corpus state. It implements
// search.SearchMonitor and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	queries            *prometheus.CounterVec
	duration           *prometheus.HistogramVec
	decisions          *prometheus.CounterVec
	candidates         prometheus.Histogram
	capabilityFailures *prometheus.CounterVec
	documents          prometheus.Gauge
	builtAt            prometheus.Gauge
	reloads            *prometheus.CounterVec

	durationBuckets []float64
	runtime         bool
}

var _ search.SearchMonitor = (*Recorder)(nil)

// Option configures a Recorder.
type Option func(*Recorder)

// WithDurationBuckets sets custom buckets for the query duration histogram.
func WithDurationBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		r.durationBuckets = buckets
	}
}

// WithRegistry uses an existing Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		r.registry = registry
	}
}

// WithoutRuntimeCollectors skips the Go runtime and process collectors.
func WithoutRuntimeCollectors() Option {
	return func(r *Recorder) {
		r.runtime = false
	}
}

// NewRecorder creates a Recorder with its own registry. Go runtime and
// process collectors are registered unless disabled.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		// Queries are dominated by two model calls.
		durationBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		runtime:         true,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Queries handled, by outcome.",
	}, []string{"outcome"})
	r.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Query handling latency, by outcome.",
		Buckets:   r.durationBuckets,
	}, []string{"outcome"})
	r.decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Ambiguity gate decisions, by kind.",
	}, []string{"decision"})
	r.candidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "candidates",
		Help:      "Candidates left after date filtering.",
		Buckets:   []float64{0, 1, 2, 3, 4, 5},
	})
	r.capabilityFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capability_failures_total",
		Help:      "Failed embedding and answer extraction calls.",
	}, []string{"capability"})
	r.documents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "corpus_documents",
		Help:      "Documents in the serving snapshot.",
	})
	r.builtAt = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "corpus_built_timestamp_seconds",
		Help:      "Unix time the serving snapshot was built.",
	})
	r.reloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "corpus_reloads_total",
		Help:      "Corpus reload attempts, by result.",
	}, []string{"result"})

	r.registry.MustRegister(
		r.queries, r.duration, r.decisions, r.candidates,
		r.capabilityFailures, r.documents, r.builtAt, r.reloads,
	)
	if r.runtime {
		r.registry.MustRegister(collectors.NewGoCollector())
		r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return r
}

// Start implements search.SearchMonitor.
func (r *Recorder) Start(_ string) {}

// AfterSemanticSearch implements search.SearchMonitor.
func (r *Recorder) AfterSemanticSearch(_ []core.Hit) {}

// AfterRanking implements search.SearchMonitor.
func (r *Recorder) AfterRanking(candidates []core.Candidate) {
	r.candidates.Observe(float64(len(candidates)))
}

// AfterDecision implements search.SearchMonitor.
func (r *Recorder) AfterDecision(decision search.Decision) {
	r.decisions.WithLabelValues(decision.Kind.String()).Inc()
}

// CapabilityFailed implements search.SearchMonitor.
func (r *Recorder) CapabilityFailed(capability string, _ error) {
	r.capabilityFailures.WithLabelValues(capability).Inc()
}

// Finish implements search.SearchMonitor.
func (r *Recorder) Finish(outcome core.Outcome, elapsed time.Duration) {
	kind := outcome.Kind.String()
	r.queries.WithLabelValues(kind).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// CorpusLoaded records a successful load or reload.
func (r *Recorder) CorpusLoaded(documents int, builtAt time.Time) {
	r.documents.Set(float64(documents))
	r.builtAt.Set(float64(builtAt.Unix()))
	r.reloads.WithLabelValues("success").Inc()
}

// CorpusLoadFailed records a failed reload. The serving snapshot is unchanged.
func (r *Recorder) CorpusLoadFailed() {
	r.reloads.WithLabelValues("failure").Inc()
}

// Handler returns an HTTP handler for Prometheus metrics scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
