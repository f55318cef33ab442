package testing

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/ncp/internal/models"
)

// MockCatalog is a test double for the playlist catalog.
//
// It counts calls per endpoint. When Gate is non-nil every fetch blocks until it is closed.
type MockCatalog struct {
	DetailCalls atomic.Int32
	TrackCalls  atomic.Int32

	Gate chan struct{}

	mu        sync.Mutex
	details   map[string]*models.PlaylistDetail
	tracks    map[string][]models.Track
	detailErr error
	tracksErr error
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		details: make(map[string]*models.PlaylistDetail),
		tracks:  make(map[string][]models.Track),
	}
}

// AddPlaylist registers a playlist and its tracks under id.
func (m *MockCatalog) AddPlaylist(id string, detail models.PlaylistDetail, tracks ...models.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[id] = &detail
	m.tracks[id] = tracks
}

// FailDetail makes detail fetches return err. Nil restores success.
func (m *MockCatalog) FailDetail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailErr = err
}

// FailTracks makes track fetches return err. Nil restores success.
func (m *MockCatalog) FailTracks(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracksErr = err
}

// Calls returns the total number of fetches issued.
func (m *MockCatalog) Calls() int {
	return int(m.DetailCalls.Load() + m.TrackCalls.Load())
}

func (m *MockCatalog) wait(ctx context.Context) error {
	if m.Gate == nil {
		return nil
	}
	select {
	case <-m.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockCatalog) GetPlaylistDetail(ctx context.Context, id string) (*models.PlaylistDetail, error) {
	m.DetailCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	d, ok := m.details[id]
	if !ok {
		return nil, errors.New("playlist not found")
	}
	return d, nil
}

func (m *MockCatalog) GetPlaylistTracks(ctx context.Context, id string) ([]models.Track, error) {
	m.TrackCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracksErr != nil {
		return nil, m.tracksErr
	}
	t, ok := m.tracks[id]
	if !ok {
		return nil, errors.New("playlist not found")
	}
	return t, nil
}

// StreamURL returns a fake source for trackID.
func (m *MockCatalog) StreamURL(trackID int64) string {
	return "mock://stream/" + strconv.FormatInt(trackID, 10)
}

func (m *MockCatalog) Name() string { return "mock" }
