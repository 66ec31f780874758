package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Pipeline
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Total recorded transactions",
		},
		[]string{"type", "category"},
	)
	TransactionsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transactions_failed_total",
			Help: "Total transactions rejected or rolled back",
		},
	)

	// Topups
	TopUpsTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "topups_triggered_total",
			Help: "Total topup rule firings",
		},
	)
	TopUpCredited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "topup_credited_total",
			Help: "Sum of amounts credited by topups",
		},
	)

	// Categorizer client
	CategorizerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "categorizer_requests_total",
			Help: "Categorizer calls by outcome",
		},
		[]string{"status"}, // ok|fallback
	)
	CategorizerLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "categorizer_latency_seconds",
			Help:    "Categorizer call latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	// Categorizer service
	CategorizationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "categorization_requests_total",
			Help: "Categorization requests served",
		},
		[]string{"category", "status"},
	)
	CategorizationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "categorization_duration_seconds",
			Help:    "Categorization duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	apiOnce, categorizerOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the API service collectors. Safe to call more than once.
func Init() {
	apiOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			TransactionsTotal,
			TransactionsFailed,
			TopUpsTriggered,
			TopUpCredited,
			CategorizerRequests,
			CategorizerLatency,
			WorkerQueueDepth,
		)
	})
}

// InitCategorizer registers the categorizer service collectors.
func InitCategorizer() {
	categorizerOnce.Do(func() {
		prometheus.MustRegister(CategorizationRequests, CategorizationDuration)
	})
}
