// Package ui implements the terminal player using bubbletea's Elm architecture.
//
// The screen is a single view stacked top to bottom:
//  1. Playlist selector tabs built from the configured [[playlists]]
//  2. Detail panel : name, creator, play and subscriber counts, description
//  3. Track list : "N. name" with artists, album, and duration
//  4. Now-playing bar : transport icon, title, elapsed/total labels and a [progress.Model]
//  5. Footer link to the playlist's page on music.163.com
//
// The (view) [Model] never touches the network or the engine directly: it reads
// playlists from a [Store] and drives a [Player]. Playback state arrives through
// the controller's snapshot subscription, read one value per command like a
// progress channel, so the view is a pure rendering of the latest [player.Snapshot].
//
// Switching to a cached playlist renders immediately; otherwise a loading state is
// shown, and results for a playlist that is no longer selected are dropped.
package ui
