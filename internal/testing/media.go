package testing

import (
	"math"
	"sync"

	"github.com/desertthunder/ncp/internal/media"
)

// FakeMedia is an in-memory media engine. Tests drive its lifecycle with Emit.
type FakeMedia struct {
	mu       sync.Mutex
	events   chan media.Event
	source   string
	position float64
	duration float64
	playing  bool
	playErr  error
	loadErr  error

	Loads  []string
	Seeks  []float64
	Plays  int
	Pauses int
}

func NewFakeMedia() *FakeMedia {
	return &FakeMedia{events: make(chan media.Event, 32), duration: math.NaN()}
}

func (f *FakeMedia) Load(source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Loads = append(f.Loads, source)
	if f.loadErr != nil {
		return f.loadErr
	}
	f.source = source
	f.position = 0
	f.duration = math.NaN()
	f.playing = false
	return nil
}

func (f *FakeMedia) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Plays++
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = true
	return nil
}

func (f *FakeMedia) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pauses++
	f.playing = false
	return nil
}

func (f *FakeMedia) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Seeks = append(f.Seeks, seconds)
	f.position = seconds
	return nil
}

func (f *FakeMedia) Position() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *FakeMedia) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *FakeMedia) Events() <-chan media.Event { return f.events }

// Source returns the last successfully loaded source.
func (f *FakeMedia) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}

// Playing reports whether Play succeeded since the last Load or Pause.
func (f *FakeMedia) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *FakeMedia) SetDuration(d float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duration = d
}

func (f *FakeMedia) SetPosition(p float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = p
}

// FailPlay makes Play return err. Nil restores success.
func (f *FakeMedia) FailPlay(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playErr = err
}

// FailLoad makes Load return err. Nil restores success.
func (f *FakeMedia) FailLoad(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErr = err
}

// Emit queues ev on the events channel.
func (f *FakeMedia) Emit(ev media.Event) {
	f.events <- ev
}

// Counts returns the number of loads, plays, and pauses seen.
func (f *FakeMedia) Counts() (loads, plays, pauses int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Loads), f.Plays, f.Pauses
}
