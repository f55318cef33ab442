package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ncp/internal/media"
	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/player"
	"github.com/desertthunder/ncp/internal/repositories"
	"github.com/desertthunder/ncp/internal/shared"
	mocks "github.com/desertthunder/ncp/internal/testing"
)

type streams struct{}

func (streams) StreamURL(id int64) string { return fmt.Sprintf("stream://%d", id) }

type fixture struct {
	media   *mocks.FakeMedia
	catalog *mocks.MockCatalog
	ctrl    *player.Controller
	cache   *repositories.PlaylistCache
	router  *BasicRouter
}

func newFixture(t *testing.T, opts ...player.Option) *fixture {
	t.Helper()
	f := &fixture{media: mocks.NewFakeMedia(), catalog: mocks.NewMockCatalog()}
	f.catalog.AddPlaylist("7",
		models.PlaylistDetail{ID: 7, Name: "Seven"},
		models.Track{ID: 1, Name: "One", DurationMS: 200000},
		models.Track{ID: 2, Name: "Two", DurationMS: 65000},
	)
	f.ctrl = player.NewController(f.media, streams{}, opts...)
	f.cache = repositories.NewPlaylistCache(f.catalog)
	logger := shared.NewLogger(io.Discard)
	f.router = NewControlRouter(f.ctrl, f.cache, "7", logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.ctrl.Run(ctx)
	return f
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

// readyWhenLoaded acknowledges the next load of source.
func (f *fixture) readyWhenLoaded(source string) {
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for f.media.Source() != source && time.Now().Before(deadline) {
			time.Sleep(2 * time.Millisecond)
		}
		f.media.Emit(media.Event{Kind: media.EventReady, Source: source})
	}()
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResponse {
	t.Helper()
	var resp StateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestBasicRouter(t *testing.T) {
	t.Run("dispatches on method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("get", "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "get") }))
		router.Handle("POST", "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "post") }))

		for method, want := range map[string]string{http.MethodGet: "get", http.MethodPost: "post"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(method, "/x", nil))
			if rec.Body.String() != want {
				t.Errorf("%s: expected %s, got %s", method, want, rec.Body.String())
			}
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/x", nil))
		if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "GET, POST" {
			t.Errorf("expected 405 with Allow, got %d %q", rec.Code, rec.Header().Get("Allow"))
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("recover", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recover(shared.NewLogger(io.Discard)))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestControlHandler(t *testing.T) {
	t.Run("GET /state when idle", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/state")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		state := decodeState(t, rec)
		if state.State != "idle" || state.Duration != nil || state.Icon != player.IconPlay {
			t.Errorf("unexpected state %+v", state)
		}
	})

	t.Run("POST /play loads and plays", func(t *testing.T) {
		f := newFixture(t)
		f.readyWhenLoaded(streams{}.StreamURL(2))

		rec := f.do(http.MethodPost, "/play?id=2")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		state := decodeState(t, rec)
		if state.State != "playing" || state.Track == nil || state.Track.ID != 2 || state.Total != "1:05" {
			t.Errorf("unexpected state %+v", state)
		}
	})

	t.Run("POST /play survives a dropped client", func(t *testing.T) {
		f := newFixture(t)
		source := streams{}.StreamURL(1)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			deadline := time.Now().Add(2 * time.Second)
			for f.media.Source() != source && time.Now().Before(deadline) {
				time.Sleep(2 * time.Millisecond)
			}
			cancel()
			time.Sleep(20 * time.Millisecond)
			f.media.Emit(media.Event{Kind: media.EventReady, Source: source})
		}()

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/play?id=1", nil).WithContext(ctx))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if state := f.ctrl.Snapshot(); state.State != player.Playing {
			t.Errorf("expected playing after the client left, got %s (%s)", state.State, state.Title)
		}
	})

	t.Run("POST /play timeout", func(t *testing.T) {
		f := newFixture(t, player.WithLoadTimeout(20*time.Millisecond))

		rec := f.do(http.MethodPost, "/play?id=1&playlist=7")
		if rec.Code != http.StatusGatewayTimeout {
			t.Fatalf("expected 504, got %d", rec.Code)
		}
		state := decodeState(t, rec)
		if state.State != "error" || state.Elapsed != "0:00" || !strings.Contains(state.Title, "timed out") {
			t.Errorf("unexpected state %+v", state)
		}
	})

	t.Run("POST /play argument errors", func(t *testing.T) {
		f := newFixture(t)
		tests := []struct {
			target string
			status int
		}{
			{"/play", http.StatusBadRequest},
			{"/play?id=abc", http.StatusBadRequest},
			{"/play?id=99", http.StatusNotFound},
		}
		for _, tt := range tests {
			if rec := f.do(http.MethodPost, tt.target); rec.Code != tt.status {
				t.Errorf("%s: expected %d, got %d", tt.target, tt.status, rec.Code)
			}
		}
	})

	t.Run("GET /play is not allowed", func(t *testing.T) {
		f := newFixture(t)
		if rec := f.do(http.MethodGet, "/play?id=1"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("POST /toggle and /pause", func(t *testing.T) {
		f := newFixture(t)
		f.readyWhenLoaded(streams{}.StreamURL(1))
		f.do(http.MethodPost, "/play?id=1")

		if state := decodeState(t, f.do(http.MethodPost, "/pause")); state.State != "paused" {
			t.Errorf("expected paused, got %s", state.State)
		}
		if state := decodeState(t, f.do(http.MethodPost, "/toggle")); state.State != "playing" {
			t.Errorf("expected playing, got %s", state.State)
		}
	})

	t.Run("POST /seek", func(t *testing.T) {
		f := newFixture(t)
		f.readyWhenLoaded(streams{}.StreamURL(1))
		f.do(http.MethodPost, "/play?id=1")

		if rec := f.do(http.MethodPost, "/seek"); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 without percent, got %d", rec.Code)
		}
		if rec := f.do(http.MethodPost, "/seek?percent=x"); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for bad percent, got %d", rec.Code)
		}

		rec := f.do(http.MethodPost, "/seek?percent=50")
		if rec.Code != http.StatusOK || len(f.media.Seeks) != 0 {
			t.Errorf("expected no-op seek with unknown duration, got %d %v", rec.Code, f.media.Seeks)
		}

		f.media.SetDuration(200)
		state := decodeState(t, f.do(http.MethodPost, "/seek?percent=50"))
		if state.Progress != 50 || state.Elapsed != "1:40" {
			t.Errorf("unexpected state after seek %+v", state)
		}
	})

	t.Run("GET /playlist and POST /cache/clear", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(http.MethodGet, "/playlist?id=7")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var entry models.CacheEntry
		json.Unmarshal(rec.Body.Bytes(), &entry)
		if entry.Detail.Name != "Seven" || len(entry.Tracks) != 2 {
			t.Errorf("unexpected entry %+v", entry)
		}

		f.do(http.MethodGet, "/playlist")
		if f.catalog.Calls() != 2 {
			t.Errorf("expected cached second request, got %d calls", f.catalog.Calls())
		}

		rec = f.do(http.MethodPost, "/cache/clear")
		if rec.Code != http.StatusOK || f.cache.Len() != 0 {
			t.Errorf("expected cleared cache, got %d entries", f.cache.Len())
		}
	})

	t.Run("catalog failure maps to 502", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.FailTracks(shared.ErrNetwork)

		if rec := f.do(http.MethodGet, "/playlist?id=7"); rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("GET /healthz", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/healthz")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
			t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
		}
	})
}

func TestServerRun(t *testing.T) {
	srv := New("127.0.0.1:0", NewBasicRouter(), shared.NewLogger(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}
