package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values.
const (
	statusOK         = "200"
	statusBadRequest = "400"
	statusNotFound   = "404"
	statusBlocked    = "451"

	reasonBlacklisted    = "blacklisted"
	reasonNotWhitelisted = "not_whitelisted"
	reasonInvalidTarget  = "invalid_target"
	reasonBadProxy       = "bad_proxy"
)

var (
	// hitsTotal counts landing page requests by HTTP status code.
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tgway_hits_total",
		Help: "Total number of landing page requests",
	}, []string{"status"})

	// redirectsTotal counts served redirects by link kind.
	redirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tgway_redirects_total",
		Help: "Total number of served redirects",
	}, []string{"kind"})

	// deniedTotal counts rejected requests by reason.
	deniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tgway_denied_total",
		Help: "Total number of denied redirect requests",
	}, []string{"reason"})

	// latencyHistogram measures landing page latency.
	latencyHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tgway_request_latency_seconds",
		Help:    "Latency of landing page rendering",
		Buckets: prometheus.DefBuckets,
	})
)
