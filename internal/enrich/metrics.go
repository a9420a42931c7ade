package enrich

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure stage label values.
const (
	stageSource = "source"
	stageImage  = "image"
	stageEmbed  = "embed"
	stageCache  = "cache"
)

var (
	// failuresTotal counts recovered enrichment failures by stage.
	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tgway_enrich_failures_total",
		Help: "Total number of recovered enrichment failures",
	}, []string{"stage"})

	// cacheHitsTotal counts metadata cache hits and misses.
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tgway_enrich_cache_total",
		Help: "Total number of metadata cache lookups by outcome",
	}, []string{"outcome"})
)
