package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Catalog errors
	ErrNetwork          = fmt.Errorf("network request failed")
	ErrApplication      = fmt.Errorf("catalog API error")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrTrackNotFound    = fmt.Errorf("track not found")

	// Playback errors
	ErrMediaLoad     = fmt.Errorf("audio load failed")
	ErrMediaTimeout  = fmt.Errorf("audio load timed out")
	ErrPlaybackStart = fmt.Errorf("playback could not start")
	ErrSuperseded    = fmt.Errorf("load superseded by a newer track")
	ErrNoTrack       = fmt.Errorf("no track loaded")
	ErrEngineClosed  = fmt.Errorf("media engine closed")

	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
