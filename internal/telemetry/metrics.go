package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pulsecart"

var (
	devRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dev_http_requests_total",
			Help:      "Total number of requests served by the dev server",
		},
		[]string{"method", "route", "status"},
	)

	devRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dev_http_request_duration_seconds",
			Help:      "Dev server request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// APIRequestsTotal counts calls made by the REST client.
	// Labels: method, route (path with ids collapsed), status ("error" on transport failure).
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of REST API calls issued by the client",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "REST API call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// QueryLookupsTotal counts Ensure calls by key family and result (hit, miss, joined).
	QueryLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_lookups_total",
			Help:      "Query cache lookups by key family and result",
		},
		[]string{"family", "result"},
	)

	// QueryFetchesTotal counts settled fetches by key family and outcome (success, error, discarded).
	QueryFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_fetches_total",
			Help:      "Query cache fetches by key family and outcome",
		},
		[]string{"family", "outcome"},
	)

	QueryInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_invalidations_total",
			Help:      "Query cache invalidations and removals by key family",
		},
		[]string{"family", "kind"},
	)
)
