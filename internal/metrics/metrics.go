package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AllocationDuration tracks the latency of promo-code allocation
	AllocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "promo_allocation_duration_seconds",
			Help: "Duration of promo-code allocation requests in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
			},
		},
		[]string{"outcome"}, // granted, already_assigned, not_qualified, exhausted or error
	)

	// CommentPagesFetched counts Graph API comment pages read by the verifier
	CommentPagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "instagram_comment_pages_fetched_total",
			Help: "Number of comment pages fetched from the Instagram Graph API",
		},
	)
)

// RecordAllocationDuration records the duration of one allocation request
func RecordAllocationDuration(outcome string, duration float64) {
	AllocationDuration.WithLabelValues(outcome).Observe(duration)
}

// IncCommentPages counts one fetched comments page
func IncCommentPages() {
	CommentPagesFetched.Inc()
}
