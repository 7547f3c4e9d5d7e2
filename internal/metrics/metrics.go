package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method"},
	)

	HTTPLatencyP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_latency_p95_milliseconds",
			Help: "95th percentile HTTP request latency over the recent request window",
		},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path", "status"},
	)

	TransformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfpress_transforms_total",
			Help: "Total number of document transforms",
		},
		[]string{"operation", "status"},
	)

	TransformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfpress_transform_duration_seconds",
			Help:    "Duration of document transforms in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	InputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfpress_input_bytes",
			Help:    "Size of input documents in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"operation"},
	)

	OutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfpress_output_bytes",
			Help:    "Size of output documents in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"operation"},
	)

	CompressionsByTier = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfpress_compressions_by_tier_total",
			Help: "Total compressions by resulting quality tier",
		},
		[]string{"tier"},
	)

	CompressionRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfpress_compression_ratio_percent",
			Help:    "Size reduction achieved by compression in percent",
			Buckets: []float64{0, 5, 10, 25, 50, 75, 90, 95, 99},
		},
	)

	CompressionFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfpress_compression_fallbacks_total",
			Help: "Total compressions that fell back to structural recompaction",
		},
	)

	PagesCroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfpress_pages_cropped_total",
			Help: "Total number of pages cropped",
		},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "environment", "service"},
	)

	AppUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_up",
			Help: "Application is up and running",
		},
	)
)

// knownPaths is the served route set. Anything else collapses to a single
// label value so arbitrary request paths cannot grow metric cardinality.
var knownPaths = map[string]bool{
	"/health":          true,
	"/health/live":     true,
	"/health/ready":    true,
	"/metrics":         true,
	"/v1/pdf/compress": true,
	"/v1/pdf/crop":     true,
}

func NormalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}

func RecordTransform(operation, status string, durationSeconds float64) {
	TransformsTotal.WithLabelValues(operation, status).Inc()
	TransformDuration.WithLabelValues(operation).Observe(durationSeconds)
}

func RecordTransformBytes(operation string, inputBytes, outputBytes int64) {
	InputBytes.WithLabelValues(operation).Observe(float64(inputBytes))
	OutputBytes.WithLabelValues(operation).Observe(float64(outputBytes))
}

func RecordCompression(tier string, ratioPercent float64) {
	CompressionsByTier.WithLabelValues(tier).Inc()
	CompressionRatio.Observe(ratioPercent)
}

func RecordCompressionFallback() {
	CompressionFallbacksTotal.Inc()
}

func RecordPagesCropped(count int) {
	PagesCroppedTotal.Add(float64(count))
}

func SetAppInfo(version, environment, service string) {
	AppInfo.WithLabelValues(version, environment, service).Set(1)
	AppUp.Set(1)
}
