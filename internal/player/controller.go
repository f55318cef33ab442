package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ncp/internal/media"
	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/shared"
)

const DefaultLoadTimeout = 10 * time.Second

// Media is the engine the controller drives. Positions and durations are seconds.
type Media interface {
	Load(source string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	Position() float64
	Duration() float64
	Events() <-chan media.Event
}

// StreamResolver derives the media source for a track.
type StreamResolver interface {
	StreamURL(trackID int64) string
}

// readiness is resolved once by the first of ready, error, timeout, or supersession.
type readiness struct {
	ticket string
	done   chan struct{}
	once   sync.Once
	err    error
}

func newReadiness(ticket string) *readiness {
	return &readiness{ticket: ticket, done: make(chan struct{})}
}

func (r *readiness) resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Controller owns the now-playing slot and the playback state machine.
type Controller struct {
	media   Media
	streams StreamResolver
	logger  *log.Logger
	timeout time.Duration

	mu      sync.Mutex
	snap    Snapshot
	ticket  string
	source  string
	pending *readiness
	visible []models.Track

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLoadTimeout bounds how long a track may take to become ready.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates an idle controller.
func NewController(m Media, streams StreamResolver, opts ...Option) *Controller {
	c := &Controller{
		media:   m,
		streams: streams,
		logger:  shared.NewLogger(io.Discard),
		timeout: DefaultLoadTimeout,
		snap:    idleSnapshot(),
		subs:    make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Current returns the track in the now-playing slot.
func (c *Controller) Current() (models.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.Track == nil {
		return models.Track{}, false
	}
	return *c.snap.Track, true
}

// SetVisible records the tracks currently listed, used by [Controller.Toggle] when nothing is loaded.
func (c *Controller) SetVisible(tracks []models.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = tracks
}

// Load makes track current and starts it.
//
// It blocks until the engine is ready and playback starts, the engine reports an
// error, or the load timeout elapses. Any failure leaves the controller in [Error]
// and is returned. A newer Load supersedes this one: the older call returns
// [shared.ErrSuperseded] without touching state.
func (c *Controller) Load(ctx context.Context, track models.Track) error {
	ticket := shared.GenerateID()
	source := c.streams.StreamURL(track.ID)
	wait := newReadiness(ticket)

	c.mu.Lock()
	if c.pending != nil {
		c.pending.resolve(shared.ErrSuperseded)
	}
	c.ticket, c.source, c.pending = ticket, source, wait
	t := track
	c.snap = Snapshot{
		State:    Loading,
		Track:    &t,
		Duration: math.NaN(),
		Elapsed:  zeroTime,
		Total:    shared.FormatDuration(track.DurationMS),
		Title:    track.Name,
		Icon:     IconPlay,
	}
	c.mu.Unlock()
	c.publish()

	c.logger.Info("loading track", "track", track.ID, "name", track.Name, "ticket", ticket)

	if err := c.media.Load(source); err != nil {
		wait.resolve(fmt.Errorf("%w: %v", shared.ErrMediaLoad, err))
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-wait.done:
	case <-timer.C:
		wait.resolve(shared.ErrMediaTimeout)
	case <-ctx.Done():
		wait.resolve(ctx.Err())
	}

	err := wait.err
	if errors.Is(err, shared.ErrSuperseded) {
		return err
	}

	c.mu.Lock()
	if c.ticket != ticket {
		c.mu.Unlock()
		return shared.ErrSuperseded
	}
	c.pending = nil
	c.mu.Unlock()

	if err == nil {
		err = c.start()
	}

	c.mu.Lock()
	if c.ticket != ticket {
		c.mu.Unlock()
		return shared.ErrSuperseded
	}
	if err != nil {
		c.fail(playbackFailedTitle+reason(err), err)
	} else {
		c.markPlaying()
	}
	c.mu.Unlock()
	c.publish()

	if err != nil {
		c.logger.Warn("track failed", "track", track.ID, "error", err)
		return err
	}
	c.logger.Info("playing", "track", track.ID)
	return nil
}

// Play resumes a paused track from its position without reloading. An ended or
// failed track has no engine resource left to resume, so it is loaded again.
func (c *Controller) Play(ctx context.Context) error {
	c.mu.Lock()
	if c.snap.Track == nil {
		c.mu.Unlock()
		return shared.ErrNoTrack
	}
	switch c.snap.State {
	case Loading, Playing:
		c.mu.Unlock()
		return nil
	case Ended, Error:
		track := *c.snap.Track
		c.mu.Unlock()
		return c.Load(ctx, track)
	}
	ticket := c.ticket
	c.mu.Unlock()

	err := c.start()

	c.mu.Lock()
	if c.ticket != ticket {
		c.mu.Unlock()
		return shared.ErrSuperseded
	}
	if err != nil {
		c.fail(playbackFailedTitle+reason(err), err)
	} else {
		c.markPlaying()
	}
	c.mu.Unlock()
	c.publish()
	return err
}

// Pause pauses playback. It is a no-op unless playing.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.snap.State != Playing {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.media.Pause(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.snap.State == Playing {
		c.snap.State = Paused
		c.snap.Playing = false
		c.snap.Icon = IconPlay
	}
	c.mu.Unlock()
	c.publish()
	return nil
}

// Toggle pauses when playing and resumes otherwise. With no current track it
// loads the first visible track; with nothing visible it does nothing.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	hasTrack := c.snap.Track != nil
	playing := c.snap.Playing
	state := c.snap.State
	var first *models.Track
	if !hasTrack && len(c.visible) > 0 {
		t := c.visible[0]
		first = &t
	}
	c.mu.Unlock()

	switch {
	case !hasTrack && first != nil:
		return c.Load(ctx, *first)
	case !hasTrack:
		return nil
	case state == Loading:
		return nil
	case playing:
		return c.Pause()
	default:
		return c.Play(ctx)
	}
}

// Seek moves to percent (clamped to 0–100) of the engine duration.
// It does nothing while the duration is unknown.
func (c *Controller) Seek(percent float64) error {
	duration := c.media.Duration()
	if !media.Known(duration) {
		return nil
	}

	c.mu.Lock()
	if c.snap.Track == nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	percent = math.Max(0, math.Min(100, percent))
	target := percent / 100 * duration
	if err := c.media.Seek(target); err != nil {
		return err
	}

	c.mu.Lock()
	c.snap.Position = target
	c.snap.Duration = duration
	c.snap.Progress = percent
	c.snap.Elapsed = shared.FormatSeconds(target)
	c.mu.Unlock()
	c.publish()
	return nil
}

// SeekBy moves by delta percentage points from the current progress.
func (c *Controller) SeekBy(delta float64) error {
	return c.Seek(c.Snapshot().Progress + delta)
}

// HandleEvent applies one engine event. Events for any source other than the
// current one are dropped.
func (c *Controller) HandleEvent(ev media.Event) {
	c.mu.Lock()
	if ev.Source != c.source || c.snap.Track == nil {
		c.mu.Unlock()
		return
	}

	changed := true
	switch ev.Kind {
	case media.EventReady:
		if c.pending != nil {
			c.pending.resolve(nil)
		}
		changed = false
	case media.EventError:
		if c.pending != nil {
			err := ev.Err
			if err == nil {
				err = shared.ErrMediaLoad
			}
			c.pending.resolve(err)
			changed = false
		} else {
			c.fail(audioErrorTitle, ev.Err)
		}
	case media.EventEnded:
		if c.pending != nil {
			changed = false
			break
		}
		c.snap.State = Ended
		c.snap.Playing = false
		c.snap.Position = 0
		c.snap.Progress = 0
		c.snap.Elapsed = zeroTime
		c.snap.Icon = IconPlay
	case media.EventTimeUpdate:
		changed = c.updateProgress(ev.Position, ev.Duration)
	default:
		changed = false
	}
	c.mu.Unlock()

	if changed {
		c.publish()
	}
}

// updateProgress recomputes progress and the elapsed label. Caller holds mu.
func (c *Controller) updateProgress(position, duration float64) bool {
	if c.snap.State != Playing && c.snap.State != Paused {
		return false
	}
	if !media.Known(duration) {
		return false
	}
	c.snap.Position = position
	c.snap.Duration = duration
	c.snap.Progress = math.Max(0, math.Min(100, position/duration*100))
	c.snap.Elapsed = shared.FormatSeconds(position)
	return true
}

// Run applies engine events until ctx ends or the event channel closes.
func (c *Controller) Run(ctx context.Context) {
	events := c.media.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.logger.Debug("media events closed")
				return
			}
			c.HandleEvent(ev)
		}
	}
}

// Subscribe returns a channel receiving every snapshot change. Slow subscribers
// miss updates rather than block the controller. Call cancel to unsubscribe.
func (c *Controller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			close(ch)
		})
	}
}

func (c *Controller) publish() {
	snap := c.Snapshot()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Controller) start() error {
	if err := c.media.Play(); err != nil {
		if errors.Is(err, shared.ErrPlaybackStart) {
			return err
		}
		return fmt.Errorf("%w: %v", shared.ErrPlaybackStart, err)
	}
	return nil
}

// markPlaying moves to Playing. Caller holds mu.
func (c *Controller) markPlaying() {
	c.snap.State = Playing
	c.snap.Playing = true
	c.snap.Icon = IconPause
	c.snap.Err = nil
}

// fail collapses to Error with title in the title slot. Caller holds mu.
func (c *Controller) fail(title string, err error) {
	c.snap.State = Error
	c.snap.Playing = false
	c.snap.Position = 0
	c.snap.Progress = 0
	c.snap.Elapsed = zeroTime
	c.snap.Total = ""
	c.snap.Title = title
	c.snap.Icon = IconPlay
	c.snap.Err = err
}

// reason is the human-readable part of a playback error.
func reason(err error) string {
	switch {
	case errors.Is(err, shared.ErrMediaTimeout):
		return shared.ErrMediaTimeout.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "load cancelled"
	default:
		return err.Error()
	}
}
