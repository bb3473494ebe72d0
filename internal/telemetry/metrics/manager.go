package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests              *prometheus.CounterVec
	CounterHandleRequestPanic    prometheus.Counter
	CounterRateLimitedRequests   prometheus.Counter
	CounterChartRefreshes        *prometheus.CounterVec
	CounterDegradedBuckets       prometheus.Counter
	CounterLeaderboardPublishes  *prometheus.CounterVec
	CounterLeaderboardFetches    *prometheus.CounterVec
	CounterSkippedLeaderboardDoc prometheus.Counter
	CounterIngestedSamples       prometheus.Counter

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistChartsRefreshDuration prometheus.Histogram
	HistogramRequestDuration  *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("fitboard", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitboard", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterChartRefreshes := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "chart_refreshes",
		Help:      "The total number of chart refreshes, by outcome",
	}, []string{"outcome"})
	counterDegradedBuckets := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "degraded_buckets",
		Help:      "Monthly buckets reported as 0 because the provider query failed",
	})
	counterLeaderboardPublishes := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "leaderboard_publishes",
		Help:      "The total number of leaderboard step count publishes, by outcome",
	}, []string{"outcome"})
	counterLeaderboardFetches := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "leaderboard_fetches",
		Help:      "The total number of leaderboard ranking fetches, by outcome",
	}, []string{"outcome"})
	counterSkippedLeaderboardDoc := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "leaderboard_skipped_documents",
		Help:      "Leaderboard documents skipped because they could not be decoded",
	})
	counterIngestedSamples := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ingested_samples",
		Help:      "The total number of ingested health samples",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histChartsRefreshDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "charts_refresh_duration_seconds",
		Help:      "Duration of a full charts refresh (all window presets) in seconds",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterRequests:              counterRequests,
		CounterHandleRequestPanic:    counterHandleRequestPanic,
		CounterRateLimitedRequests:   counterRateLimitedRequests,
		CounterChartRefreshes:        counterChartRefreshes,
		CounterDegradedBuckets:       counterDegradedBuckets,
		CounterLeaderboardPublishes:  counterLeaderboardPublishes,
		CounterLeaderboardFetches:    counterLeaderboardFetches,
		CounterSkippedLeaderboardDoc: counterSkippedLeaderboardDoc,
		CounterIngestedSamples:       counterIngestedSamples,
		GaugeRequests:                gaugeRequests,
		GaugeLifeSignal:              gaugeLifeSignal,
		HistChartsRefreshDuration:    histChartsRefreshDuration,
		HistogramRequestDuration:     histogramRequestDuration,
	}
}

// Outcome returns the label value used by the outcome counters.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
