// package models defines the data model for the playlist player
package models

import (
	"strconv"
	"strings"
	"time"
)

// Artist is a credited performer of a [Track].
type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Album is the release a [Track] belongs to.
type Album struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	PicURL string `json:"picUrl"`
}

// Track is a song as listed by the catalog.
type Track struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	DurationMS int64    `json:"dt"`
	Artists    []Artist `json:"ar"`
	Album      *Album   `json:"al,omitempty"`
}

// Key returns the track ID as a string.
func (t Track) Key() string {
	return strconv.FormatInt(t.ID, 10)
}

// Duration converts DurationMS to a [time.Duration].
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// ArtistNames returns the artist names in credit order.
func (t Track) ArtistNames() []string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return names
}

// ArtistLine joins artist names with " / ".
func (t Track) ArtistLine() string {
	return strings.Join(t.ArtistNames(), " / ")
}

// AlbumName returns the album name, or "Unknown album" when the track has none.
func (t Track) AlbumName() string {
	if t.Album == nil || t.Album.Name == "" {
		return "Unknown album"
	}
	return t.Album.Name
}

// Creator is the owner of a playlist.
type Creator struct {
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl"`
}

// PlaylistDetail is playlist metadata without tracks.
type PlaylistDetail struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	CoverImgURL     string  `json:"coverImgUrl"`
	Creator         Creator `json:"creator"`
	PlayCount       int64   `json:"playCount"`
	SubscribedCount int64   `json:"subscribedCount"`
	TrackCount      int     `json:"trackCount"`
	Description     string  `json:"description"`
}

// DescriptionOrDefault returns the description, or "No description" when empty.
func (p PlaylistDetail) DescriptionOrDefault() string {
	if strings.TrimSpace(p.Description) == "" {
		return "No description"
	}
	return p.Description
}

// CacheEntry is a playlist's detail and tracks fetched together.
//
// Entries are never mutated after construction.
type CacheEntry struct {
	Detail    PlaylistDetail `json:"detail"`
	Tracks    []Track        `json:"tracks"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// NewCacheEntry builds an entry owning a copy of tracks.
func NewCacheEntry(detail PlaylistDetail, tracks []Track, fetchedAt time.Time) *CacheEntry {
	owned := make([]Track, len(tracks))
	copy(owned, tracks)
	return &CacheEntry{Detail: detail, Tracks: owned, FetchedAt: fetchedAt}
}

// FindTrack returns the track with the given ID.
func (e *CacheEntry) FindTrack(id int64) (Track, bool) {
	for _, t := range e.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// IndexOf returns the position of the track with the given ID, or -1.
func (e *CacheEntry) IndexOf(id int64) int {
	for i, t := range e.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
