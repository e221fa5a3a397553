// Package fanmade provides a client for the fanmade site API.
package fanmade

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/fanmade/nowplaying/internal/apperr"
	"github.com/fanmade/nowplaying/internal/domain/track"
)

// Client is a fanmade API client.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Config represents API client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// PlayResponse represents the response from /api/v1/play/{id}.
type PlayResponse struct {
	TrackTitle string `json:"track_title"`
	ArtistName string `json:"artist_name"`
	CoverImage string `json:"cover_image"`
	TrackURL   string `json:"track_url"`
	AlbumTitle string `json:"album_title"`
	AlbumID    string `json:"album_id"`
}

// AlbumResponse represents the response from /api/v1/album/{id}.
type AlbumResponse struct {
	Title  string   `json:"title"`
	Tracks []string `json:"tracks"`
}

// CreditResponse represents one entry of /api/v1/credits/{id}.
type CreditResponse struct {
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.Mark(errors.New("base URL is required"), apperr.ErrConfiguration)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Mark(errors.Newf("invalid base URL %q", cfg.BaseURL), apperr.ErrConfiguration)
	}
	// The base path is a mount point: every site path resolves below it.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
		if base.RawPath != "" {
			base.RawPath += "/"
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Resolve retrieves the playable metadata of a track.
// Relative cover and media URLs are made absolute against the base URL.
func (c *Client) Resolve(ctx context.Context, id track.ID) (*track.Metadata, error) {
	if id.IsZero() {
		return nil, errors.New("track ID is required")
	}

	var response PlayResponse
	if err := c.getJSON(ctx, "/api/v1/play/"+url.PathEscape(id.String()), &response); err != nil {
		return nil, err
	}

	zlog.Debug().Msgf("fanmade: resolved track: id=%s title=%s", id, response.TrackTitle)
	return &track.Metadata{
		ID:         id,
		Title:      response.TrackTitle,
		Artist:     response.ArtistName,
		CoverURL:   c.absolute(response.CoverImage),
		MediaURL:   c.absolute(response.TrackURL),
		AlbumTitle: response.AlbumTitle,
		AlbumID:    response.AlbumID,
	}, nil
}

// GetAlbum retrieves an album and its track IDs.
func (c *Client) GetAlbum(ctx context.Context, albumID string) (*track.Album, error) {
	if albumID == "" {
		return nil, errors.New("album ID is required")
	}

	var response AlbumResponse
	if err := c.getJSON(ctx, "/api/v1/album/"+url.PathEscape(albumID), &response); err != nil {
		return nil, err
	}

	album := &track.Album{
		ID:     albumID,
		Title:  response.Title,
		Tracks: make([]track.ID, 0, len(response.Tracks)),
	}
	for _, t := range response.Tracks {
		album.Tracks = append(album.Tracks, track.ID(t))
	}
	return album, nil
}

// GetCredits retrieves the credits of a track grouped by category.
func (c *Client) GetCredits(ctx context.Context, id track.ID) ([]track.Credit, error) {
	if id.IsZero() {
		return nil, errors.New("track ID is required")
	}

	var response []CreditResponse
	if err := c.getJSON(ctx, "/api/v1/credits/"+url.PathEscape(id.String()), &response); err != nil {
		return nil, err
	}

	credits := make([]track.Credit, 0, len(response))
	for _, cr := range response {
		credits = append(credits, track.Credit{
			Category: cr.Name,
			Artists:  cr.Artists,
		})
	}
	return credits, nil
}

// GetPage retrieves a site page as raw HTML.
func (c *Client) GetPage(ctx context.Context, path string) (io.ReadCloser, error) {
	reqURL := c.absolute(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Fetch(err, "failed to send request")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Mark(errors.Newf("GET %s: %s", reqURL, resp.Status), apperr.ErrFetch)
	}
	return resp.Body, nil
}

// getJSON performs a GET on path and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	reqURL := c.absolute(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Fetch(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Fetch(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Mark(errors.Newf("GET %s: %s", reqURL, resp.Status), apperr.ErrFetch)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Parse(err, "failed to parse response")
	}
	return nil
}

// absolute resolves ref below the base URL, so "/api/v1/play/x" on a base of
// "https://host/site" becomes "https://host/site/api/v1/play/x". Refs with a
// scheme or host are returned as is.
func (c *Client) absolute(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() || u.Host != "" {
		return ref
	}
	u.Path = strings.TrimLeft(u.Path, "/")
	u.RawPath = strings.TrimLeft(u.RawPath, "/")
	return c.baseURL.ResolveReference(u).String()
}
