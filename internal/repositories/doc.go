// Package repositories holds the in-memory playlist store.
//
// [PlaylistCache] maps a playlist ID to a [models.CacheEntry] built from two concurrent
// catalog fetches (detail and full track list) joined with an [errgroup.Group]:
//   - [PlaylistCache.Get] : cache-then-fetch; a hit makes no network calls
//   - [PlaylistCache.Load] : always fetches and swaps the entry in whole
//   - [PlaylistCache.Peek] : synchronous lookup for rendering a hit without a loading state
//   - [PlaylistCache.Clear] : drops every entry
//
// Concurrent loads for one ID are coalesced through a [singleflight.Group], so a
// burst of requests for an uncached playlist issues exactly one detail fetch and one
// track fetch. There is no TTL; FetchedAt is informational.
package repositories
