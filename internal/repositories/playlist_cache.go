package repositories

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 30 * time.Second

// Catalog is the read side of the music catalog consumed by [PlaylistCache].
//
// [services.NeteaseService] implements it.
type Catalog interface {
	GetPlaylistDetail(ctx context.Context, id string) (*models.PlaylistDetail, error)
	GetPlaylistTracks(ctx context.Context, id string) ([]models.Track, error)
}

// PlaylistCache keeps one [models.CacheEntry] per playlist ID for the life of the process.
//
// Entries are replaced whole or not at all and are only evicted by [PlaylistCache.Clear].
type PlaylistCache struct {
	catalog Catalog
	logger  *log.Logger
	timeout time.Duration
	now     func() time.Time

	mu         sync.RWMutex
	entries    map[string]*models.CacheEntry
	generation uint64

	flights singleflight.Group
}

// CacheOption configures a [PlaylistCache].
type CacheOption func(*PlaylistCache)

// WithCacheLogger sets the logger.
func WithCacheLogger(l *log.Logger) CacheOption {
	return func(c *PlaylistCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFetchTimeout bounds one shared fetch of detail and tracks.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *PlaylistCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock replaces time.Now for FetchedAt stamps.
func WithClock(now func() time.Time) CacheOption {
	return func(c *PlaylistCache) { c.now = now }
}

// NewPlaylistCache creates an empty cache backed by catalog.
func NewPlaylistCache(catalog Catalog, opts ...CacheOption) *PlaylistCache {
	c := &PlaylistCache{
		catalog: catalog,
		logger:  shared.NewLogger(io.Discard),
		timeout: defaultFetchTimeout,
		now:     time.Now,
		entries: make(map[string]*models.CacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached entry for id, loading it on a miss.
//
// A hit performs no network calls.
func (c *PlaylistCache) Get(ctx context.Context, id string) (*models.CacheEntry, error) {
	if entry, ok := c.Peek(id); ok {
		return entry, nil
	}
	return c.do(ctx, id, true)
}

// Load fetches detail and tracks for id concurrently and stores the result.
//
// Both fetches must succeed; otherwise nothing is stored and the first error is returned.
// Concurrent calls for the same id share one fetch. A caller whose ctx ends stops
// waiting without cancelling the shared fetch.
func (c *PlaylistCache) Load(ctx context.Context, id string) (*models.CacheEntry, error) {
	return c.do(ctx, id, false)
}

func (c *PlaylistCache) do(ctx context.Context, id string, reuse bool) (*models.CacheEntry, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	c.mu.RLock()
	generation := c.generation
	c.mu.RUnlock()

	// Flights are keyed by generation so a call after Clear never joins an older fetch.
	key := fmt.Sprintf("%d/%s", generation, id)
	ch := c.flights.DoChan(key, func() (any, error) {
		if reuse {
			if entry, ok := c.Peek(id); ok {
				return entry, nil
			}
		}
		return c.fetch(context.WithoutCancel(ctx), id, generation)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight load", "playlist", id)
		}
		return res.Val.(*models.CacheEntry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *PlaylistCache) fetch(ctx context.Context, id string, generation uint64) (*models.CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var (
		detail *models.PlaylistDetail
		tracks []models.Track
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.catalog.GetPlaylistDetail(gctx, id)
		if err != nil {
			return err
		}
		detail = d
		return nil
	})
	g.Go(func() error {
		t, err := c.catalog.GetPlaylistTracks(gctx, id)
		if err != nil {
			return err
		}
		tracks = t
		return nil
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn("playlist load failed", "playlist", id, "error", err)
		return nil, err
	}

	entry := models.NewCacheEntry(*detail, tracks, c.now())

	c.mu.Lock()
	if c.generation == generation {
		c.entries[id] = entry
	}
	c.mu.Unlock()

	c.logger.Info("playlist loaded", "playlist", id, "tracks", len(entry.Tracks), "took", time.Since(start))
	return entry, nil
}

// Peek returns the cached entry without fetching.
func (c *PlaylistCache) Peek(id string) (*models.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	return entry, ok
}

// Clear drops every entry. Loads already in flight return their result but do not repopulate the cache.
func (c *PlaylistCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.CacheEntry)
	c.generation++
	c.logger.Info("playlist cache cleared")
}

// Len returns the number of cached playlists.
func (c *PlaylistCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
