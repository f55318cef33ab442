package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/ncp/internal/formatter"
	"github.com/desertthunder/ncp/internal/shared"
	"github.com/desertthunder/ncp/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistShow prints a playlist's detail and track list.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if id == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}

	r.logger.Infof("fetching playlist %v", id)

	entry, err := r.cache.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load playlist %s: %w", id, err)
	}

	if useJSON {
		return r.writeJSON(entry, pretty)
	}

	d := entry.Detail
	r.writePlainHeader(d.Name)
	r.writePlain("Creator:     %s\n", d.Creator.Nickname)
	r.writePlain("Plays:       %s\n", shared.FormatNumber(d.PlayCount))
	r.writePlain("Subscribers: %s\n", shared.FormatNumber(d.SubscribedCount))
	r.writePlain("Tracks:      %d\n", d.TrackCount)
	r.writePlain("Fetched:     %s\n", shared.FormatDate(entry.FetchedAt))
	r.writePlain("Page:        %s\n", shared.PlaylistPageURL(id))
	r.writePlain("\n%s\n\n", d.DescriptionOrDefault())

	if len(entry.Tracks) == 0 {
		r.writePlain("No songs in this playlist\n")
		return nil
	}

	for i, t := range entry.Tracks {
		r.writePlain("%d. %s - %s (%s)\n", i+1, t.ArtistLine(), t.Name, shared.FormatDuration(t.DurationMS))
		r.writePlain("   Album: %s\n", t.AlbumName())
	}
	return nil
}

// PlaylistExport writes a playlist to disk in the requested format.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")
	if id == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	entry, err := r.cache.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load playlist %s: %w", id, err)
	}

	result, err := formatter.Write(ctx, entry, format, cmd.String("output"), formatter.Options{
		Pretty:     cmd.Bool("pretty"),
		CoverImage: cmd.Bool("cover"),
		Client:     r.httpClient,
	})
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		r.logger.Warn(w)
	}

	r.logger.Infof("playlist exported as %v with %v tracks", result.Format, len(entry.Tracks))

	r.writePlain("✓ Playlist exported: %s\n", entry.Detail.Name)
	r.writePlain("  Tracks: %d\n", len(entry.Tracks))
	for _, f := range result.Files {
		r.writePlain("  File: %s\n", f)
	}
	return nil
}

// PlaylistExportAll exports the --id playlists, or every configured playlist, with
// a worker pool and prints progress as it goes.
func (r *Runner) PlaylistExportAll(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("id")
	if len(ids) == 0 {
		for _, p := range r.config.Playlists {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no playlists configured, pass --id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine := tasks.NewPlaylistEngine(r.cache, r.logger)
	progress := make(chan tasks.ProgressUpdate, 2*len(ids))
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.Catalog.RateLimit,
		CoverImage: cmd.Bool("cover"),
		Client:     r.httpClient,
	})
	close(progress)
	<-printed
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Exported %d/%d playlists to %s\n", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	r.writePlain("  Manifest: %s\n", result.ManifestPath)
	if result.FailedExports > 0 {
		r.writePlain("  Failed: %d\n", result.FailedExports)
	}
	return nil
}

// TrackURL prints the stream URL the player would load for a track.
func (r *Runner) TrackURL(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.String("id")
	if raw == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: track id %q is not a number", shared.ErrInvalidArgument, raw)
	}

	return r.writePlain("%s\n", r.catalog.StreamURL(id))
}
