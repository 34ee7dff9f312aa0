// Package cache provides response caching for the Brawl Stars client.
//
// Two tiers are available:
//
//   - TTLCache: in-process, per-entry TTL, optional LRU size bound
//   - RedisStore: optional shared tier so several processes reuse responses
//
// # Basic Usage
//
//	c := cache.NewTTLCache[[]byte](time.Minute, 1000)
//
//	key := cache.CacheKey{
//		URL:         "https://api.brawlstars.com/v1/clubs/%23ABC/members",
//		QueryParams: url.Values{"limit": []string{"3"}},
//	}.String()
//
//	c.Store(key, body, 0) // 0 selects the default TTL
//	if v, ok := c.Lookup(key); ok {
//		// fresh hit
//	}
//
// # Expiry and Eviction
//
// An entry is never returned after its expiry; expired entries are removed
// when next accessed rather than by a background sweeper. With a size bound
// the least recently used entry is evicted on insert, and a successful
// Lookup counts as a use.
//
// # Metrics
//
//   - brawl_cache_hits_total{layer} - Cache hits
//   - brawl_cache_misses_total{layer} - Cache misses
//   - brawl_cache_entries{layer} - Entries currently held
//   - brawl_cache_evictions_total{layer} - LRU evictions
//   - brawl_cache_expirations_total{layer} - Lazy expiry removals
//   - brawl_cache_errors_total{operation} - Redis operation errors
package cache
