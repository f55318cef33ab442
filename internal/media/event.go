package media

import (
	"fmt"
	"math"
)

// EventKind identifies a media lifecycle signal.
type EventKind int

const (
	EventReady EventKind = iota
	EventError
	EventEnded
	EventTimeUpdate
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventError:
		return "error"
	case EventEnded:
		return "ended"
	case EventTimeUpdate:
		return "timeupdate"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is emitted by an engine for the source it was loaded with.
type Event struct {
	Kind     EventKind
	Source   string
	Position float64
	Duration float64
	Err      error
}

// Known reports whether d is a usable duration.
func Known(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d > 0
}
