package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistLoaded MsgKind = iota
	MsgSnapshot
	MsgPlaybackResult
	MsgBrowserOpened
	MsgSubscriptionClosed
)

type playlistLoaded struct {
	id    string
	entry *models.CacheEntry
	err   error
}

// playlistLoadedMsg is the constructor for [MsgPlaylistLoaded]
func playlistLoadedMsg(id string, entry *models.CacheEntry, err error) Msg {
	return Msg{kind: MsgPlaylistLoaded, data: playlistLoaded{id, entry, err}}
}

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(snap player.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: snap}
}

// playbackResultMsg is the constructor for [MsgPlaybackResult]
func playbackResultMsg(err error) Msg {
	return Msg{kind: MsgPlaybackResult, data: err}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(url string, err error) Msg {
	return Msg{
		kind: MsgBrowserOpened,
		data: struct {
			url string
			err error
		}{url, err},
	}
}

func subscriptionClosedMsg() Msg {
	return Msg{kind: MsgSubscriptionClosed}
}
