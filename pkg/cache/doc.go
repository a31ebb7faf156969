// Package cache stores fetched logistics pages in Redis so repeated runs can
// revalidate pages instead of downloading them again.
//
// Pages are keyed by their URL and a fingerprint of the API token, so two
// tokens never share cached bodies.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.KeyFor(req.URL, token)
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API
//	}
//
// # Conditional Requests
//
// An entry that carries an ETag or Last-Modified value is revalidated:
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// a 304 Not Modified means entry.Body is still current
//	}
//
// # Metrics
//
//   - logistics_cache_hits_total
//   - logistics_cache_misses_total
//   - logistics_cache_errors_total{operation}
//   - logistics_304_responses_total
//   - logistics_conditional_requests_total
//
// The cache is an optimisation only. Callers log cache errors and carry on
// with a plain request.
package cache
