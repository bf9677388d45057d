package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PredictionsTotal counts predictions served, by predicted labels
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvelens",
			Name:      "predictions_total",
			Help:      "Total number of predictions served",
		},
		[]string{"attack_type", "severity_band"},
	)

	// PredictionDuration observes the latency of one predict call (any batch size)
	PredictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cvelens",
			Name:      "prediction_duration_seconds",
			Help:      "Latency of pipeline predict calls",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// UnseenCategories counts cells mapped to the unknown code at serving time
	UnseenCategories = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvelens",
			Name:      "unseen_categories_total",
			Help:      "Categorical values not seen during training",
		},
		[]string{"column"},
	)

	// MissingColumns counts fitted columns absent from a serving batch
	MissingColumns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvelens",
			Name:      "missing_columns_total",
			Help:      "Fitted columns absent from a transformed batch",
		},
		[]string{"column"},
	)

	// FeedRequests counts feed HTTP attempts by outcome
	FeedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvelens",
			Name:      "feed_requests_total",
			Help:      "Vulnerability feed download attempts",
		},
		[]string{"status"},
	)

	// RecordsHarvested counts records parsed from the feed, by feed year
	RecordsHarvested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvelens",
			Name:      "records_harvested_total",
			Help:      "CVE records parsed from the vulnerability feed",
		},
		[]string{"year"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		// Errors are ignored so a second registry owner never panics the process.
		prometheus.DefaultRegisterer.Register(PredictionsTotal)
		prometheus.DefaultRegisterer.Register(PredictionDuration)
		prometheus.DefaultRegisterer.Register(UnseenCategories)
		prometheus.DefaultRegisterer.Register(MissingColumns)
		prometheus.DefaultRegisterer.Register(FeedRequests)
		prometheus.DefaultRegisterer.Register(RecordsHarvested)
	})
}
