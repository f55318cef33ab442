package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/ncp/internal/shared"
	mocks "github.com/desertthunder/ncp/internal/testing"
)

func TestNeteaseService(t *testing.T) {
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		if NewNeteaseService("", "").Name() != "NetEase Cloud Music" {
			t.Error("unexpected service name")
		}
	})

	t.Run("GetPlaylistDetail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlist/detail" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("id") != "42" {
				t.Errorf("unexpected id %s", r.URL.Query().Get("id"))
			}
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"code":200,"playlist":{"id":42,"name":"Mix","coverImgUrl":"http://img/c.jpg",
				"creator":{"nickname":"dj","avatarUrl":"http://img/a.jpg"},
				"playCount":15000,"subscribedCount":12,"trackCount":2,"description":"hello"}}`)
		}))
		defer server.Close()

		svc := NewNeteaseService(server.URL+"/", "")
		detail, err := svc.GetPlaylistDetail(ctx, "42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if detail.ID != 42 || detail.Name != "Mix" || detail.Creator.Nickname != "dj" || detail.PlayCount != 15000 {
			t.Errorf("unexpected detail: %+v", detail)
		}
	})

	t.Run("GetPlaylistTracks", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlist/track/all" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			io.WriteString(w, `{"code":200,"songs":[
				{"id":1,"name":"One","dt":65000,"ar":[{"name":"A"},{"name":"B"}],"al":{"name":"LP","picUrl":"http://img/p.jpg"}},
				{"id":2,"name":"Two","dt":1000,"ar":[]}]}`)
		}))
		defer server.Close()

		tracks, err := NewNeteaseService(server.URL, "").GetPlaylistTracks(ctx, "42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].ArtistLine() != "A / B" || tracks[0].DurationMS != 65000 || tracks[0].AlbumName() != "LP" {
			t.Errorf("unexpected first track: %+v", tracks[0])
		}
		if tracks[1].Album != nil {
			t.Error("expected nil album on second track")
		}
	})

	t.Run("missing songs decode to empty list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"code":200}`)
		}))
		defer server.Close()

		tracks, err := NewNeteaseService(server.URL, "").GetPlaylistTracks(ctx, "1")
		if err != nil || tracks == nil || len(tracks) != 0 {
			t.Errorf("expected empty non-nil slice, got %v %v", tracks, err)
		}
	})

	t.Run("StreamURL", func(t *testing.T) {
		svc := NewNeteaseService("", "https://api.injahow.cn/meting/")
		want := "https://api.injahow.cn/meting/?type=url&id=1234"
		if got := svc.StreamURL(1234); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}

func TestNeteaseServiceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("application error carries API message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"code":404,"message":"playlist gone"}`)
		}))
		defer server.Close()

		_, err := NewNeteaseService(server.URL, "").GetPlaylistDetail(ctx, "1")
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FetchError, got %v", err)
		}
		if !errors.Is(err, shared.ErrApplication) || !fe.IsApplication() {
			t.Errorf("expected ErrApplication, got %v", err)
		}
		if fe.Message != "playlist gone" || fe.Code != 404 {
			t.Errorf("unexpected fetch error: %+v", fe)
		}
	})

	t.Run("application error without message uses fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"code":500}`)
		}))
		defer server.Close()

		svc := NewNeteaseService(server.URL, "")
		_, err := svc.GetPlaylistDetail(ctx, "1")
		var fe *FetchError
		if !errors.As(err, &fe) || fe.Message != "failed to fetch playlist detail" {
			t.Errorf("expected detail fallback message, got %v", err)
		}

		_, err = svc.GetPlaylistTracks(ctx, "1")
		if !errors.As(err, &fe) || fe.Message != "failed to fetch playlist tracks" {
			t.Errorf("expected tracks fallback message, got %v", err)
		}
	})

	t.Run("non-2xx is a network error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewNeteaseService(server.URL, "").GetPlaylistTracks(ctx, "1")
		var fe *FetchError
		if !errors.As(err, &fe) || fe.Status != http.StatusBadGateway {
			t.Fatalf("expected status 502, got %v", err)
		}
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
		if !strings.Contains(err.Error(), "502") {
			t.Errorf("expected status in message, got %s", err.Error())
		}
	})

	t.Run("transport failure is a network error", func(t *testing.T) {
		client := &http.Client{Transport: mocks.NewMockRoundTripper(nil, errors.New("connection refused"))}
		svc := NewNeteaseService("http://catalog.invalid", "", WithHTTPClient(client))

		_, err := svc.GetPlaylistDetail(ctx, "1")
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("body read failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &mocks.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: mocks.NewMockRoundTripper(resp, nil)}
		svc := NewNeteaseService("http://catalog.invalid", "", WithHTTPClient(client))

		_, err := svc.GetPlaylistTracks(ctx, "1")
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `not json`)
		}))
		defer server.Close()

		_, err := NewNeteaseService(server.URL, "").GetPlaylistDetail(ctx, "1")
		if !errors.Is(err, shared.ErrApplication) {
			t.Errorf("expected ErrApplication, got %v", err)
		}
	})

	t.Run("missing playlist body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"code":200}`)
		}))
		defer server.Close()

		_, err := NewNeteaseService(server.URL, "").GetPlaylistDetail(ctx, "1")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("cancelled context while rate limited", func(t *testing.T) {
		svc := NewNeteaseService("http://catalog.invalid", "", WithRateLimit(0.001))
		svc.limiter.Allow()
		svc.limiter.Allow()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.GetPlaylistDetail(cctx, "1")
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})
}
