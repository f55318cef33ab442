// Package player implements the playback controller: one now-playing slot and the
// lifecycle Idle → Loading → Playing ⇄ Paused, ending in Ended or Error.
//
// [Controller.Load] waits on a single readiness value resolved by whichever of
// {engine ready, engine error, timeout} happens first. Each load carries a fresh
// ticket; a newer load resolves the older wait with [shared.ErrSuperseded], and
// engine events tagged with a stale source are ignored, so a slow track can never
// overwrite the state of the one that replaced it.
//
// Failures never escape as panics or partial state: they collapse to [Error] with
// "playback failed: <reason>" in the title slot and are returned to the caller.
//
// Presentation layers read [Controller.Snapshot] or [Controller.Subscribe].
package player
