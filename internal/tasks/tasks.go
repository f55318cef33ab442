package tasks

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/shared"
)

// Store is the playlist source exports read from.
//
// [repositories.PlaylistCache] implements it, so repeated exports reuse cached entries.
type Store interface {
	Get(ctx context.Context, id string) (*models.CacheEntry, error)
}

// PlaylistExportJob is one playlist queued for a worker.
type PlaylistExportJob struct {
	Index      int
	PlaylistID string
}

// PlaylistExportResult reports the outcome for a single playlist.
type PlaylistExportResult struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Success      bool     `json:"success"`
	Files        []string `json:"files"`
	Tracks       int      `json:"tracks"`
	Message      string   `json:"error,omitempty"`
	Error        error    `json:"-"`

	index int
}

// BulkExportResult summarizes a [PlaylistEngine.BulkExport] run.
type BulkExportResult struct {
	Format            string                 `json:"format"`
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

// PlaylistEngine runs batch operations over a [Store].
type PlaylistEngine struct {
	store  Store
	logger *log.Logger
}

// NewPlaylistEngine creates an engine. A nil logger discards output.
func NewPlaylistEngine(store Store, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &PlaylistEngine{store: store, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}
