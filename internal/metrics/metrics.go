package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_recommend_http_requests_total",
			Help: "Total number of recommendation HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meal_recommend_http_request_duration_seconds",
			Help:    "Duration of recommendation HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Inference
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meal_recommend_inference_duration_seconds",
			Help:    "Duration of one batch scaler+model call over the whole catalog",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	InferenceErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meal_recommend_inference_errors_total",
			Help: "Total number of failed inference calls",
		},
	)

	RecommendationsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meal_recommend_results_per_request",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 2, 3},
		},
	)

	// Cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meal_recommend_cache_hits_total",
			Help: "Total number of result cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meal_recommend_cache_misses_total",
			Help: "Total number of result cache misses",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_recommend_cache_errors_total",
			Help: "Total number of result cache errors",
		},
		[]string{"operation"},
	)

	// Resources
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meal_recommend_catalog_items",
			Help: "Number of food items in the loaded catalog",
		},
	)

	ResourceLoadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_recommend_resource_load_failures_total",
			Help: "Total number of startup resource load failures",
		},
		[]string{"resource"},
	)
)

// RecordRequest records one finished HTTP request.
func RecordRequest(endpoint string, status int, started time.Time) {
	RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}
