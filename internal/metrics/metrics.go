package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edusuite_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edusuite_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edusuite_api_response_size_bytes",
			Help:    "API response body size",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)
)

// Tenant resolution metrics
var (
	// TenantCacheHitsTotal labelled by cache backend (memory, redis)
	TenantCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edusuite_tenant_cache_hits_total",
			Help: "Tenant lookups served from cache",
		},
		[]string{"backend"},
	)

	TenantCacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edusuite_tenant_cache_misses_total",
			Help: "Tenant lookups that fell through to the directory",
		},
		[]string{"backend"},
	)

	// TenantResolutionsTotal outcome: ok, missing_header, empty_code, not_found, error
	TenantResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edusuite_tenant_resolutions_total",
			Help: "Tenant resolution attempts by outcome",
		},
		[]string{"outcome"},
	)

	TenantDirectoryLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edusuite_tenant_directory_lookup_duration_seconds",
			Help:    "Latency of tenant directory lookups on cache miss",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// Data layer metrics
var (
	SoftDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edusuite_soft_deletes_total",
			Help: "Deletes rewritten into soft deletes, by table",
		},
		[]string{"table"},
	)

	// SoftDeletedRows is refreshed by the soft-delete report job
	SoftDeletedRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edusuite_soft_deleted_rows",
			Help: "Soft-deleted rows per table and tenant",
		},
		[]string{"table", "tenant_id"},
	)
)
