package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests *prometheus.CounterVec
	CounterScoreComputations   *prometheus.CounterVec
	CounterScoreCacheHits      prometheus.Counter
	CounterScoreCacheMisses    prometheus.Counter
	CounterChatUpstreamCalls   *prometheus.CounterVec

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistogramRequestDuration      *prometheus.HistogramVec
	HistogramChatUpstreamDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("athletedash", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("athletedash", "test_server", reg), reg
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
	counterRateLimitedRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	}, []string{"route"})
	counterScoreComputations := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "score_computations",
		Help:      "The total number of athlete score computations",
	}, []string{"kind", "result"})
	counterScoreCacheHits := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "score_cache_hits",
		Help:      "Athlete reports served from the cache",
	})
	counterScoreCacheMisses := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "score_cache_misses",
		Help:      "Athlete reports computed because they were not cached",
	})
	counterChatUpstreamCalls := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "chat_upstream_calls",
		Help:      "The total number of calls to the chat completions API",
	}, []string{"result"})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        "current_requests",
		Help:        "Current number of requests served",
		ConstLabels: nil,
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        "life_signal",
		Help:        "Shows whether the service is alive",
		ConstLabels: nil,
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	// completions are slow, buckets go up to the client timeout
	histogramChatUpstreamDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.1, 0.25, 0.5, 1, 2, 4,
				8, 15, 30, 60,
			},
			Name: "chat_upstream_duration_seconds",
			Help: "Duration of a single chat completions API call in seconds",
		},
	)

	return &Manager{
		CounterRequests:               counterRequests,
		CounterHandleRequestPanic:     counterHandleRequestPanic,
		CounterRateLimitedRequests:    counterRateLimitedRequests,
		CounterScoreComputations:      counterScoreComputations,
		CounterScoreCacheHits:         counterScoreCacheHits,
		CounterScoreCacheMisses:       counterScoreCacheMisses,
		CounterChatUpstreamCalls:      counterChatUpstreamCalls,
		GaugeRequests:                 gaugeRequests,
		GaugeLifeSignal:               gaugeLifeSignal,
		HistogramRequestDuration:      histogramRequestDuration,
		HistogramChatUpstreamDuration: histogramChatUpstreamDuration,
	}
}
