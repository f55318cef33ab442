// Package services implements the catalog client for NetEase-compatible music APIs.
//
// # Endpoints
//
// [NeteaseService] reads two endpoints, both returning a JSON envelope with a numeric code:
//   - GET {base}/playlist/detail?id={id} : {code: 200, playlist: {...}}
//   - GET {base}/playlist/track/all?id={id} : {code: 200, songs: [...]}
//
// Stream URLs are derived, not fetched: {resolver}?type=url&id={trackId}.
//
// # Rate Limiting
//
// Requests wait on a [rate.Limiter] configured from catalog.rate_limit so switching
// playlists quickly cannot hammer public mirrors.
//
// # Error Handling
//
// Every failure is a [*FetchError] that unwraps to a sentinel from the shared package:
//   - [shared.ErrNetwork] : transport failure or non-2xx HTTP status
//   - [shared.ErrApplication] : 2xx response whose body code is not 200; Message carries the API's own text
//
// When the API sends no message the fallback is "failed to fetch playlist detail"
// or "failed to fetch playlist tracks".
package services
