// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graphsense_store_query_duration_seconds",
		Help:    "Latency of column store queries by query kind",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"query", "status"})

	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphsense_searches_total",
		Help: "Neighbor searches by currency and outcome",
	}, []string{"currency", "outcome"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graphsense_search_duration_seconds",
		Help:    "Wall time of neighbor searches",
		Buckets: prometheus.DefBuckets,
	}, []string{"currency"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphsense_cache_lookups_total",
		Help: "Redis cache lookups by kind and result",
	}, []string{"kind", "result"})

	CurrenciesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graphsense_currencies_loaded",
		Help: "Currencies with a loaded exchange rate snapshot",
	})
)

// ObserveQuery records a store query that started at start. Status is one of
// "ok", "not_found" or "error".
func ObserveQuery(query string, start time.Time, status string) {
	StoreQueryDuration.WithLabelValues(query, status).Observe(time.Since(start).Seconds())
}
