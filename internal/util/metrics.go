package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_products_processed_total",
		Help: "Total number of products run through the normalization pipeline",
	}, []string{"result"})

	ProductProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_product_processing_latency_seconds",
		Help:    "Latency of the full product normalization pipeline",
		Buckets: prometheus.DefBuckets,
	})

	ProductsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_deleted_total",
		Help: "Total number of products hard deleted",
	})

	NormalizationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_normalization_latency_seconds",
		Help:    "Latency of one attribute family normalization",
		Buckets: prometheus.DefBuckets,
	}, []string{"family"})

	AttributesUnmappedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_attributes_unmapped_total",
		Help: "Total number of raw vendor values without a canonical mapping",
	}, []string{"family"})

	AvailabilityChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_availability_computed_total",
		Help: "Total number of availability computations by outcome",
	}, []string{"outcome"})

	AnalogBandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_analog_band_total",
		Help: "Price band at which the analog search stopped widening",
	}, []string{"band"})

	SearchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_search_requests_total",
		Help: "Total number of search requests by outcome",
	}, []string{"outcome"})

	SearchCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_search_cache_total",
		Help: "Search result cache lookups",
	}, []string{"result"})

	SearchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_search_latency_seconds",
		Help:    "Latency of search requests",
		Buckets: prometheus.DefBuckets,
	})

	EventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_events_consumed_total",
		Help: "Total number of catalog events consumed",
	}, []string{"event_type", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
