// Package metrics exposes Prometheus collectors for pricing runs, mail
// processing and the price-store client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kabs/internal"
)

var (
	PricedItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kabs_priced_items_total",
			Help: "BOM items priced, by line, verification status and match type",
		},
		[]string{"line", "status", "match_type"},
	)

	ValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kabs_validation_duration_seconds",
			Help:    "Time taken to price one BOM against one line",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"line"},
	)

	RequestsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kabs_requests_processed_total",
			Help: "Quote requests processed, by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kabs_price_store_calls_total",
			Help: "Calls made to the hosted price store",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kabs_price_store_call_duration_seconds",
			Help:    "Duration of price store calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RateLimitDelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kabs_price_store_rate_limit_delay_seconds",
			Help:    "Time spent waiting on the client-side rate limiter",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

// RecordPricing counts a priced BOM and how long it took.
func RecordPricing(lineID string, items []internal.PricedBOMItem, duration time.Duration) {
	for _, it := range items {
		PricedItemsTotal.WithLabelValues(lineID, string(it.VerificationStatus), string(it.VerificationProof.MatchType)).Inc()
	}
	ValidationDuration.WithLabelValues(lineID).Observe(duration.Seconds())
}

func RecordRequest(provider, outcome string) {
	RequestsProcessedTotal.WithLabelValues(provider, outcome).Inc()
}

func RecordAPICall(endpoint, status string, duration time.Duration) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func RecordRateLimit(delay time.Duration) {
	RateLimitDelay.Observe(delay.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed time from its creation.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
