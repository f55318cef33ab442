package services

import (
	"context"

	"github.com/desertthunder/ncp/internal/models"
)

// Service defines the interface for music catalogs that can describe a playlist
// and resolve its tracks to playable sources.
type Service interface {
	// GetPlaylistDetail retrieves playlist metadata without tracks.
	GetPlaylistDetail(ctx context.Context, id string) (*models.PlaylistDetail, error)

	// GetPlaylistTracks retrieves the full, ordered track list.
	GetPlaylistTracks(ctx context.Context, id string) ([]models.Track, error)

	// StreamURL derives the media source for a track. No request is made.
	StreamURL(trackID int64) string

	// Name returns the name of the service (e.g., "NetEase Cloud Music")
	Name() string
}

var _ Service = (*NeteaseService)(nil)
