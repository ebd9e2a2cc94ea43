package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks store hits by layer (memory, disk, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_hits_total",
			Help: "Total number of cache store hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks store misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_misses_total",
			Help: "Total number of cache store misses",
		},
		[]string{"layer"},
	)

	// CorruptRecords tracks stored records that failed to decode
	CorruptRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_corrupt_records_total",
			Help: "Total number of stored records that could not be decoded",
		},
		[]string{"layer"},
	)

	// CacheWrites tracks successful record writes by layer
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_writes_total",
			Help: "Total number of cache records written",
		},
		[]string{"layer"},
	)

	// CacheWriteBytes tracks the encoded size of written records
	CacheWriteBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_write_bytes_total",
			Help: "Total encoded bytes written to the cache",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks store I/O errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"layer", "operation"}, // "get", "put"
	)
)
