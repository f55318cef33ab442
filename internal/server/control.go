package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/player"
	"github.com/desertthunder/ncp/internal/services"
	"github.com/desertthunder/ncp/internal/shared"
)

// Player is the playback surface exposed over HTTP.
type Player interface {
	Load(ctx context.Context, track models.Track) error
	Toggle(ctx context.Context) error
	Pause() error
	Seek(percent float64) error
	SetVisible(tracks []models.Track)
	Snapshot() player.Snapshot
}

// Store is the playlist cache exposed over HTTP.
type Store interface {
	Get(ctx context.Context, id string) (*models.CacheEntry, error)
	Clear()
	Len() int
}

// ControlHandler drives a player and playlist cache over JSON endpoints:
//
//	GET  /state
//	POST /toggle
//	POST /pause
//	POST /seek?percent=
//	POST /play?id=&playlist=
//	GET  /playlist?id=
//	POST /cache/clear
type ControlHandler struct {
	player          Player
	store           Store
	defaultPlaylist string
	logger          *log.Logger
}

// NewControlHandler creates a handler. defaultPlaylist is used when a request names none.
func NewControlHandler(p Player, store Store, defaultPlaylist string, logger *log.Logger) *ControlHandler {
	return &ControlHandler{player: p, store: store, defaultPlaylist: defaultPlaylist, logger: logger}
}

// Register adds every control route to r.
func (h *ControlHandler) Register(r Router) {
	r.Handle(http.MethodGet, "/state", http.HandlerFunc(h.state))
	r.Handle(http.MethodPost, "/toggle", http.HandlerFunc(h.toggle))
	r.Handle(http.MethodPost, "/pause", http.HandlerFunc(h.pause))
	r.Handle(http.MethodPost, "/seek", http.HandlerFunc(h.seek))
	r.Handle(http.MethodPost, "/play", http.HandlerFunc(h.play))
	r.Handle(http.MethodGet, "/playlist", http.HandlerFunc(h.playlist))
	r.Handle(http.MethodPost, "/cache/clear", http.HandlerFunc(h.clearCache))
}

// StateResponse is the JSON form of a [player.Snapshot].
type StateResponse struct {
	State    string        `json:"state"`
	Track    *models.Track `json:"track,omitempty"`
	Playing  bool          `json:"playing"`
	Position float64       `json:"position"`
	Duration *float64      `json:"duration"`
	Progress float64       `json:"progress"`
	Elapsed  string        `json:"elapsed"`
	Total    string        `json:"total"`
	Title    string        `json:"title"`
	Icon     string        `json:"icon"`
	Error    string        `json:"error,omitempty"`
}

// NewStateResponse converts snap. An unknown duration is encoded as null.
func NewStateResponse(snap player.Snapshot) StateResponse {
	resp := StateResponse{
		State:    snap.State.String(),
		Track:    snap.Track,
		Playing:  snap.Playing,
		Position: snap.Position,
		Progress: snap.Progress,
		Elapsed:  snap.Elapsed,
		Total:    snap.Total,
		Title:    snap.Title,
		Icon:     snap.Icon,
		Error:    snap.ErrorMessage(),
	}
	if !math.IsNaN(snap.Duration) && !math.IsInf(snap.Duration, 0) {
		d := snap.Duration
		resp.Duration = &d
	}
	return resp
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

func (h *ControlHandler) state(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, NewStateResponse(h.player.Snapshot()))
}

// Loads started here outlive the request so a dropped client cannot fail them.
func (h *ControlHandler) toggle(w http.ResponseWriter, r *http.Request) {
	h.respondPlayback(w, h.player.Toggle(context.WithoutCancel(r.Context())))
}

func (h *ControlHandler) pause(w http.ResponseWriter, r *http.Request) {
	h.respondPlayback(w, h.player.Pause())
}

func (h *ControlHandler) seek(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("percent")
	if raw == "" {
		h.writeError(w, fmt.Errorf("%w: percent", shared.ErrMissingArgument))
		return
	}
	percent, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(percent) {
		h.writeError(w, fmt.Errorf("%w: percent %q", shared.ErrInvalidArgument, raw))
		return
	}
	h.respondPlayback(w, h.player.Seek(percent))
}

func (h *ControlHandler) play(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawID := q.Get("id")
	if rawID == "" {
		h.writeError(w, fmt.Errorf("%w: id", shared.ErrMissingArgument))
		return
	}
	trackID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: id %q", shared.ErrInvalidArgument, rawID))
		return
	}

	playlistID := q.Get("playlist")
	if playlistID == "" {
		playlistID = h.defaultPlaylist
	}
	entry, err := h.store.Get(r.Context(), playlistID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	track, ok := entry.FindTrack(trackID)
	if !ok {
		h.writeError(w, fmt.Errorf("%w: %d in playlist %s", shared.ErrTrackNotFound, trackID, playlistID))
		return
	}

	h.player.SetVisible(entry.Tracks)
	h.respondPlayback(w, h.player.Load(context.WithoutCancel(r.Context()), track))
}

func (h *ControlHandler) playlist(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		id = h.defaultPlaylist
	}
	entry, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

func (h *ControlHandler) clearCache(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	h.writeJSON(w, http.StatusOK, map[string]int{"entries": h.store.Len()})
}

// respondPlayback writes the state after a transport call. Playback failures
// are reported in the body with the state they left behind.
func (h *ControlHandler) respondPlayback(w http.ResponseWriter, err error) {
	resp := NewStateResponse(h.player.Snapshot())
	if err == nil {
		h.writeJSON(w, http.StatusOK, resp)
		return
	}
	h.logger.Warn("playback request failed", "error", err)
	if resp.Error == "" {
		resp.Error = err.Error()
	}
	h.writeJSON(w, statusFor(err), resp)
}

func (h *ControlHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var fe *services.FetchError
	if errors.As(err, &fe) {
		resp.Status = fe.Status
	}
	h.writeJSON(w, status, resp)
}

func (h *ControlHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrTrackNotFound), errors.Is(err, shared.ErrPlaylistNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrNoTrack), errors.Is(err, shared.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, shared.ErrNetwork), errors.Is(err, shared.ErrApplication),
		errors.Is(err, shared.ErrMediaLoad), errors.Is(err, shared.ErrPlaybackStart):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrMediaTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HealthHandler answers liveness probes with the cache size.
type HealthHandler struct {
	store Store
}

func NewHealthHandler(store Store) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Routes() []string { return []string{"/healthz"} }

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "cached_playlists": h.store.Len()})
}

// NewControlRouter builds the full control surface with logging and panic recovery.
func NewControlRouter(p Player, store Store, defaultPlaylist string, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	NewControlHandler(p, store, defaultPlaylist, logger).Register(router)
	router.Handler(NewHealthHandler(store))
	return router
}
