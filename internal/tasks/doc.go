// Package tasks runs long playlist operations with real-time progress reporting.
//
// # Bulk export
//
// [PlaylistEngine.BulkExport] exports many playlists with a worker pool:
//
//   - IDs are dispatched through a [rate.Limiter] so the catalog is not flooded
//   - each worker reads the playlist through the [Store] (cache hit or fetch)
//     and writes it with the formatter package
//   - failures are recorded per playlist and never abort the batch
//   - an export_manifest.json summarizing every result is written last
//
// # Progress Reporting
//
// Progress is sent on an optional channel as [ProgressUpdate] values.
// Sends use select with default so a slow reader never stalls an export.
package tasks
