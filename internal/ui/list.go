package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/shared"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	index   int
	track   models.Track
	playing bool
}

func (i trackItem) FilterValue() string {
	return i.track.Name + " " + i.track.ArtistLine()
}

func (i trackItem) Title() string {
	title := fmt.Sprintf("%d. %s", i.index+1, i.track.Name)
	if i.playing {
		return "♪ " + title
	}
	return title
}

func (i trackItem) Description() string {
	parts := []string{i.track.ArtistLine(), i.track.AlbumName(), shared.FormatDuration(i.track.DurationMS)}
	if parts[0] == "" {
		parts = parts[1:]
	}
	return strings.Join(parts, " • ")
}

// trackItems builds list items, marking the track with nowPlaying.
func trackItems(tracks []models.Track, nowPlaying int64) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{index: i, track: t, playing: t.ID == nowPlaying}
	}
	return items
}
