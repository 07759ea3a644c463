package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search provider and run metrics.
var (
	SearchAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serprank",
			Name:      "search_api_requests_total",
			Help:      "Total number of Custom Search API page requests",
		},
		[]string{"status"}, // HTTP status code or "transport_error"
	)

	SearchAPIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "serprank",
			Name:      "search_api_request_duration_seconds",
			Help:      "Custom Search API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)

	SearchAPIResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "serprank",
			Name:      "search_api_results_total",
			Help:      "Total result links returned by the Custom Search API",
		},
	)

	SearchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serprank",
			Name:      "search_runs_total",
			Help:      "Search runs by outcome",
		},
		[]string{"outcome"}, // matched / not_found / untracked / error
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers search metrics with the default registry.
// Safe to call more than once and from several goroutines.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(SearchAPIRequestsTotal)
		prometheus.MustRegister(SearchAPIRequestDuration)
		prometheus.MustRegister(SearchAPIResultsTotal)
		prometheus.MustRegister(SearchRunsTotal)
	})
}
