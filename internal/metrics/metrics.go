package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bobbys_store_http_requests_total",
			Help: "Total number of HTTP requests by method and status code",
		},
		[]string{"method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bobbys_store_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	StorageConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bobbys_store_storage_connect_attempts_total",
			Help: "Document store connection attempts by result",
		},
		[]string{"result"},
	)

	// StorageReady is 1 once the document store answered a ping.
	StorageReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bobbys_store_storage_ready",
			Help: "Whether the document store connection is established",
		},
	)
)
