// Package models defines the catalog entities shared by the playlist cache, the player, and the presentation layers.
//
// All types mirror the JSON returned by the NetEase-compatible catalog API and are treated as immutable once decoded:
//   - [Track] : a song with its artists, optional album, and duration in milliseconds
//   - [PlaylistDetail] : playlist metadata (creator, counters, description)
//   - [CacheEntry] : a playlist's detail and full track list as fetched together
package models
