package player

import (
	"math"

	"github.com/desertthunder/ncp/internal/models"
)

// State is a stage of the playback lifecycle.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
	Ended
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Transport icons. IconPlay means "play available", IconPause means "pause available".
const (
	IconPlay  = "▶"
	IconPause = "⏸"
)

const (
	zeroTime            = "0:00"
	playbackFailedTitle = "playback failed: "
	audioErrorTitle     = "audio playback error"
)

// Snapshot is the visible playback state.
type Snapshot struct {
	State    State         `json:"state"`
	Track    *models.Track `json:"track,omitempty"`
	Playing  bool          `json:"playing"`
	Position float64       `json:"position"`
	Duration float64       `json:"-"`
	Progress float64       `json:"progress"`
	Elapsed  string        `json:"elapsed"`
	Total    string        `json:"total"`
	Title    string        `json:"title"`
	Icon     string        `json:"icon"`
	Err      error         `json:"-"`
}

// HasTrack reports whether a track occupies the now-playing slot.
func (s Snapshot) HasTrack() bool { return s.Track != nil }

// Seekable reports whether the engine duration is known.
func (s Snapshot) Seekable() bool {
	return !math.IsNaN(s.Duration) && !math.IsInf(s.Duration, 0) && s.Duration > 0
}

// ErrorMessage returns the error text or "".
func (s Snapshot) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

func idleSnapshot() Snapshot {
	return Snapshot{
		State:    Idle,
		Duration: math.NaN(),
		Elapsed:  zeroTime,
		Total:    zeroTime,
		Icon:     IconPlay,
	}
}
