// Package metrics provides Prometheus metrics for the identity resolution pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation outcome label values.
const (
	OutcomeTransponder = "transponder"
	OutcomeExact       = "exact"
	OutcomeFuzzy       = "fuzzy"
	OutcomeNone        = "none"
)

// Discovery cache label values.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
	CacheOff  = "off"
)

// MatchingMetrics holds all Prometheus metrics for matching, linking, and discovery.
type MatchingMetrics struct {
	// Matching metrics
	EvaluationsTotal *prometheus.CounterVec
	SimilarityScores prometheus.Histogram

	// Link metrics
	LinkUpsertsTotal   *prometheus.CounterVec
	LinkDecisionsTotal *prometheus.CounterVec

	// Discovery and ingest metrics
	DiscoveryRequestsTotal *prometheus.CounterVec
	IngestEventsTotal      prometheus.Counter
}

// Default creates metrics registered on the default Prometheus registerer.
func Default() *MatchingMetrics {
	return New(prometheus.DefaultRegisterer)
}

// New creates a new set of matching metrics on the given registerer.
func New(reg prometheus.Registerer) *MatchingMetrics {
	factory := promauto.With(reg)

	return &MatchingMetrics{
		EvaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mre_matching_evaluations_total",
				Help: "Match evaluations by outcome",
			},
			[]string{"outcome"},
		),
		SimilarityScores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mre_matching_similarity_score",
				Help:    "Similarity scores of fuzzy match evaluations",
				Buckets: []float64{0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 0.99, 1.0},
			},
		),
		LinkUpsertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mre_link_upserts_total",
				Help: "Event driver link upserts by result",
			},
			[]string{"result"},
		),
		LinkDecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mre_link_decisions_total",
				Help: "User link decisions by status",
			},
			[]string{"status"},
		),
		DiscoveryRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mre_discovery_requests_total",
				Help: "Event discovery requests by cache result",
			},
			[]string{"cache"},
		),
		IngestEventsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mre_ingest_events_total",
				Help: "Total event result sheets ingested",
			},
		),
	}
}

// RecordEvaluation records a match evaluation outcome.
func (m *MatchingMetrics) RecordEvaluation(outcome string) {
	m.EvaluationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSimilarity records the similarity score of a fuzzy evaluation.
func (m *MatchingMetrics) ObserveSimilarity(score float64) {
	m.SimilarityScores.Observe(score)
}

// RecordLinkUpsert records the result of a link upsert.
func (m *MatchingMetrics) RecordLinkUpsert(result string) {
	m.LinkUpsertsTotal.WithLabelValues(result).Inc()
}

// RecordLinkDecision records a confirm or reject decision.
func (m *MatchingMetrics) RecordLinkDecision(status string) {
	m.LinkDecisionsTotal.WithLabelValues(status).Inc()
}

// RecordDiscovery records a discovery request and its cache result.
func (m *MatchingMetrics) RecordDiscovery(cache string) {
	m.DiscoveryRequestsTotal.WithLabelValues(cache).Inc()
}

// RecordIngest records an ingested event result sheet.
func (m *MatchingMetrics) RecordIngest() {
	m.IngestEventsTotal.Inc()
}
