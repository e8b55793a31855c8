package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AdminsExtractedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_admins_extracted_total",
		Help: "Total number of admins extracted from boundary relations",
	})
	AdminsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocoder_admins_skipped_total",
		Help: "Total number of boundary relations rejected during extraction",
	}, []string{"reason"})
	AddrsIndexedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_addrs_indexed_total",
		Help: "Total number of address documents bulk indexed",
	})
	AddrsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_addrs_failed_total",
		Help: "Total number of address records that failed to parse or assemble",
	})
	ResolveRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_resolve_requests_total",
		Help: "Total number of admin resolution API requests",
	})
	ResolveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geocoder_resolve_duration_ms",
		Help:    "Admin resolution duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100},
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_cache_hits_total",
		Help: "Total resolve cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_cache_misses_total",
		Help: "Total resolve cache misses",
	})
)

func init() {
	prometheus.MustRegister(
		AdminsExtractedTotal,
		AdminsSkippedTotal,
		AddrsIndexedTotal,
		AddrsFailedTotal,
		ResolveRequestsTotal,
		ResolveDurationMs,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
