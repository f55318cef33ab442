// NetEase catalog client
//
// Talks to a NetEase-compatible API deployment (NeteaseCloudMusicApi and its mirrors).
// Only the two read endpoints needed to render a playlist are implemented.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/shared"
	"golang.org/x/time/rate"
)

const (
	detailEndpoint = "/playlist/detail"
	tracksEndpoint = "/playlist/track/all"

	detailFallbackMessage = "failed to fetch playlist detail"
	tracksFallbackMessage = "failed to fetch playlist tracks"
)

// FetchError describes a failed catalog request.
//
// Status is the HTTP status when a response was received (0 for transport failures).
// Code is the API's own status code when the body reported an application error.
type FetchError struct {
	Endpoint string
	Status   int
	Code     int
	Message  string
	Err      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("%s: %s (code %d)", e.Endpoint, e.Message, e.Code)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Message, e.Status)
	default:
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsApplication reports whether the API answered but signalled failure in its body.
func (e *FetchError) IsApplication() bool { return errors.Is(e.Err, shared.ErrApplication) }

// envelope is the common shape of every catalog response.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Msg
}

type detailResponse struct {
	envelope
	Playlist *models.PlaylistDetail `json:"playlist"`
}

type tracksResponse struct {
	envelope
	Songs []models.Track `json:"songs"`
}

// NeteaseService fetches playlist data from the catalog and derives stream URLs.
type NeteaseService struct {
	baseURL        string
	streamResolver string
	httpClient     *http.Client
	limiter        *rate.Limiter
}

// NeteaseOption configures a [NeteaseService].
type NeteaseOption func(*NeteaseService)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) NeteaseOption {
	return func(n *NeteaseService) {
		if c != nil {
			n.httpClient = c
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) NeteaseOption {
	return func(n *NeteaseService) {
		if perSecond <= 0 {
			n.limiter = nil
			return
		}
		n.limiter = rate.NewLimiter(rate.Limit(perSecond), 2)
	}
}

// WithTimeout sets the per-request client timeout.
func WithTimeout(d time.Duration) NeteaseOption {
	return func(n *NeteaseService) {
		if d > 0 {
			n.httpClient.Timeout = d
		}
	}
}

// NewNeteaseService creates a catalog client rooted at baseURL.
func NewNeteaseService(baseURL, streamResolver string, opts ...NeteaseOption) *NeteaseService {
	n := &NeteaseService{
		baseURL:        strings.TrimRight(baseURL, "/"),
		streamResolver: streamResolver,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewNeteaseServiceFromConfig builds the client from the [catalog] section.
func NewNeteaseServiceFromConfig(cfg shared.CatalogConfig) *NeteaseService {
	return NewNeteaseService(cfg.BaseURL, cfg.StreamResolver,
		WithTimeout(cfg.Timeout()),
		WithRateLimit(cfg.RateLimit),
	)
}

// Name returns the service name.
func (n *NeteaseService) Name() string {
	return "NetEase Cloud Music"
}

// GetPlaylistDetail retrieves playlist metadata.
//
// Calls GET {base}/playlist/detail?id={id}.
func (n *NeteaseService) GetPlaylistDetail(ctx context.Context, id string) (*models.PlaylistDetail, error) {
	var resp detailResponse
	if err := n.get(ctx, detailEndpoint, id, &resp, &resp.envelope, detailFallbackMessage); err != nil {
		return nil, err
	}
	if resp.Playlist == nil {
		return nil, &FetchError{
			Endpoint: detailEndpoint,
			Message:  detailFallbackMessage,
			Err:      fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id),
		}
	}
	return resp.Playlist, nil
}

// GetPlaylistTracks retrieves every track in a playlist.
//
// Calls GET {base}/playlist/track/all?id={id}.
func (n *NeteaseService) GetPlaylistTracks(ctx context.Context, id string) ([]models.Track, error) {
	var resp tracksResponse
	if err := n.get(ctx, tracksEndpoint, id, &resp, &resp.envelope, tracksFallbackMessage); err != nil {
		return nil, err
	}
	if resp.Songs == nil {
		return []models.Track{}, nil
	}
	return resp.Songs, nil
}

// StreamURL derives the playable URL for a track.
//
// The URL is not resolved; the media engine follows the resolver's redirect itself.
func (n *NeteaseService) StreamURL(trackID int64) string {
	return n.streamResolver + "?type=url&id=" + strconv.FormatInt(trackID, 10)
}

func (n *NeteaseService) get(ctx context.Context, endpoint, id string, result any, env *envelope, fallback string) error {
	fail := func(status int, msg string, err error) error {
		return &FetchError{Endpoint: endpoint, Status: status, Message: msg, Err: err}
	}

	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return fail(0, fallback, fmt.Errorf("%w: %v", shared.ErrNetwork, err))
		}
	}

	apiURL := n.baseURL + endpoint + "?" + url.Values{"id": {id}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fail(0, fallback, fmt.Errorf("%w: failed to create request: %v", shared.ErrNetwork, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fail(0, fallback, fmt.Errorf("%w: %v", shared.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fail(resp.StatusCode, fallback, fmt.Errorf("%w: HTTP %d", shared.ErrNetwork, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, fallback, fmt.Errorf("%w: failed to read response: %v", shared.ErrNetwork, err))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fail(resp.StatusCode, fallback, fmt.Errorf("%w: failed to decode response: %v", shared.ErrApplication, err))
	}

	if env.Code != http.StatusOK {
		msg := env.message()
		if msg == "" {
			msg = fallback
		}
		return &FetchError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Code:     env.Code,
			Message:  msg,
			Err:      fmt.Errorf("%w: %s", shared.ErrApplication, msg),
		}
	}
	return nil
}
