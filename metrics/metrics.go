package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "farescout"

var (
	// PageLoadAttempts counts every navigation to a booking page, retries included.
	PageLoadAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_load_attempts_total",
		Help:      "The total number of booking page navigations",
	})

	// PageLoadTimeouts counts page loads that exhausted every attempt.
	PageLoadTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_load_timeouts_total",
		Help:      "The total number of page loads that timed out on every attempt",
	})

	// RoundTrips counts finished round-trip searches by result code
	// ("ok" or a models error code).
	RoundTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "round_trips_total",
		Help:      "The total number of round-trip searches",
	}, []string{"result"})

	// RoundTripDuration observes end-to-end search time.
	RoundTripDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "round_trip_duration_seconds",
		Help:      "Time taken by a round-trip search, both page loads included",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 60, 120},
	})

	// LayoutDrift counts searches whose cash and points pages differed in structure.
	LayoutDrift = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "layout_drift_total",
		Help:      "The total number of searches with diverging cash/points page layouts",
	})
)

// Rejections counts API requests refused before reaching a search, by error code.
var Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "api_rejections_total",
	Help:      "The total number of API requests rejected by auth or rate limiting",
}, []string{"code"})
