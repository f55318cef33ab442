package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/ncp/internal/formatter"
	"github.com/desertthunder/ncp/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: ncp_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 8)
	RateLimit  float64          // Playlists dispatched per second (default: 2)
	CoverImage bool             // Download covers next to Markdown exports
	Client     *http.Client     // Used for cover downloads
}

// BulkExport exports every playlist in ids into opts.OutputDir.
//
// A failed playlist is recorded in the result and the batch continues. Cancelling
// ctx stops dispatching; playlists already dispatched report their own outcome.
func (e *PlaylistEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no playlists to export", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ncp_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          string(opts.Format),
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				e.logger.Debug("export dispatch stopped", "remaining", len(ids)-i, "error", err)
				return
			}
			jobs <- PlaylistExportJob{Index: i, PlaylistID: id}
			e.sendProgress(prog, fetchingPlaylistUpdate(i+1, len(ids), id))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].index < result.Results[j].index
	})

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("bulk export finished",
		"ok", result.SuccessfulExports, "failed", result.FailedExports, "dir", opts.OutputDir)
	return result, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *PlaylistEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		results <- e.exportSinglePlaylist(ctx, job, opts)
	}
}

// exportSinglePlaylist reads one playlist through the store and writes it.
//
// JSON, CSV and text land in {dir}/{id}.{ext}; Markdown in {dir}/{id}/README.md.
func (e *PlaylistEngine) exportSinglePlaylist(ctx context.Context, j PlaylistExportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   j.PlaylistID,
		PlaylistName: fmt.Sprintf("Unknown (%s)", j.PlaylistID),
		Files:        []string{},
		index:        j.Index,
	}
	fail := func(err error) PlaylistExportResult {
		result.Error = err
		result.Message = err.Error()
		return result
	}

	entry, err := e.store.Get(ctx, j.PlaylistID)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch playlist: %w", err))
	}
	result.PlaylistName = entry.Detail.Name
	result.Tracks = len(entry.Tracks)

	path := filepath.Join(opts.OutputDir, j.PlaylistID)
	if opts.Format != formatter.FormatMarkdown {
		path += "." + string(opts.Format)
	}

	written, err := formatter.Write(ctx, entry, opts.Format, path, formatter.Options{
		Pretty:     true,
		CoverImage: opts.CoverImage,
		Client:     opts.Client,
	})
	if err != nil {
		return fail(fmt.Errorf("%s export failed: %w", opts.Format, err))
	}
	for _, w := range written.Warnings {
		e.logger.Warn(w, "playlist", j.PlaylistID)
	}

	result.Files = written.Files
	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
