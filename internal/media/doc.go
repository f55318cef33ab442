// Package media drives the audio engine behind the player.
//
// [MPV] runs an idle mpv process and speaks its JSON IPC protocol over a unix socket.
// Lifecycle signals are translated into [Event] values on a single channel:
//   - [EventReady] : mpv emitted file-loaded for the current source
//   - [EventError] : end-file with reason "error"
//   - [EventEnded] : end-file with reason "eof"
//   - [EventTimeUpdate] : time-pos or duration changed
//
// Positions and durations are seconds. An unknown duration is NaN, never zero.
package media
