package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solrisk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solrisk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Analysis metrics
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solrisk_analyses_total",
			Help: "Total number of risk analyses performed",
		},
		[]string{"subject", "risk_level"}, // subject: token, wallet
	)

	RiskScoreHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solrisk_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"subject"},
	)

	// Upstream provider metrics
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solrisk_provider_request_duration_seconds",
			Help:    "Upstream provider request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solrisk_provider_errors_total",
			Help: "Total number of upstream provider failures",
		},
		[]string{"provider", "operation"},
	)

	// Narrative enrichment metrics
	NarrativeEnrichmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solrisk_narrative_enrichments_total",
			Help: "Narrative enrichment outcomes",
		},
		[]string{"subject", "outcome"}, // outcome: success, fallback, patch_failed
	)

	// Report persistence metrics
	ReportWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solrisk_report_writes_total",
			Help: "Report create/patch operations by status",
		},
		[]string{"operation", "status"},
	)
)
