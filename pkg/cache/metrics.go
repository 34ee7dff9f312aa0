package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawl_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawl_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"layer"},
	)

	// CacheEntries tracks the number of stored entries by layer
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "brawl_cache_entries",
			Help: "Current number of entries held in the cache",
		},
		[]string{"layer"},
	)

	// CacheEvictions tracks LRU evictions
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawl_cache_evictions_total",
			Help: "Total number of entries evicted to respect the size bound",
		},
		[]string{"layer"},
	)

	// CacheExpirations tracks entries dropped lazily after expiry
	CacheExpirations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawl_cache_expirations_total",
			Help: "Total number of expired entries removed on access",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks shared-tier operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawl_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
