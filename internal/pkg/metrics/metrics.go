package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "railway",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "railway",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	StoreQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "railway",
		Name:      "store_queries_total",
		Help:      "Store statements by operation, table and result.",
	}, []string{"operation", "table", "result"})

	StoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "railway",
		Name:      "store_query_duration_seconds",
		Help:      "Store statement latency.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation", "table"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "railway",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by cache name and outcome.",
	}, []string{"cache", "outcome"})

	WorkerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "railway",
		Name:      "worker_messages_total",
		Help:      "Stream messages handled by workers.",
	}, []string{"worker", "result"})
)
