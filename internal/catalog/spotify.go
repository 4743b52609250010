package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"resonate/internal/models"
)

const (
	defaultSpotifyAPIURL   = "https://api.spotify.com/v1"
	defaultSpotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyEmbedTrackURL   = "https://open.spotify.com/embed/track/"

	// tokenSlack renews the token slightly before Spotify expires it.
	tokenSlack = 30 * time.Second
)

// SpotifyClient searches the Spotify Web API using the client-credentials flow.
type SpotifyClient struct {
	clientID     string
	clientSecret string
	apiURL       string
	tokenURL     string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// SpotifyOption customizes a SpotifyClient.
type SpotifyOption func(*SpotifyClient)

func WithAPIURL(u string) SpotifyOption {
	return func(c *SpotifyClient) {
		if u != "" {
			c.apiURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTokenURL(u string) SpotifyOption {
	return func(c *SpotifyClient) {
		if u != "" {
			c.tokenURL = u
		}
	}
}

func WithTimeout(d time.Duration) SpotifyOption {
	return func(c *SpotifyClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(h *http.Client) SpotifyOption {
	return func(c *SpotifyClient) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// NewSpotifyClient creates a new Spotify API client
func NewSpotifyClient(clientID, clientSecret string, opts ...SpotifyOption) *SpotifyClient {
	c := &SpotifyClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		apiURL:       defaultSpotifyAPIURL,
		tokenURL:     defaultSpotifyTokenURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type spotifySearchResponse struct {
	Artists *spotifyPage[spotifyArtist] `json:"artists,omitempty"`
	Albums  *spotifyPage[spotifyAlbum]  `json:"albums,omitempty"`
	Tracks  *spotifyPage[spotifyTrack]  `json:"tracks,omitempty"`
}

type spotifyPage[T any] struct {
	Items []T `json:"items"`
}

type spotifyArtist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Genres       []string            `json:"genres"`
	Images       []spotifyImage      `json:"images"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
}

type spotifyAlbum struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Artists      []spotifySimpleArtist `json:"artists"`
	ReleaseDate  string                `json:"release_date"`
	Images       []spotifyImage        `json:"images"`
	ExternalURLs spotifyExternalURLs   `json:"external_urls"`
}

type spotifyTrack struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Artists      []spotifySimpleArtist `json:"artists"`
	Album        spotifyAlbum          `json:"album"`
	ExternalURLs spotifyExternalURLs   `json:"external_urls"`
}

type spotifySimpleArtist struct {
	Name string `json:"name"`
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached access token, fetching a new one when it is missing or about to expire.
func (c *SpotifyClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("create auth request: %w", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("spotify auth failed: %s - %s", resp.Status, string(body))
	}

	var tokenResp spotifyTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("spotify auth returned no access token")
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenSlack)
	return c.accessToken, nil
}

func (c *SpotifyClient) search(ctx context.Context, query, searchType string) (*spotifySearchResponse, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"q":     []string{query},
		"type":  []string{searchType},
		"limit": []string{"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token revoked early; force a refresh on the next call.
		c.mu.Lock()
		c.accessToken = ""
		c.mu.Unlock()
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("spotify api error: %s - %s", resp.Status, string(body))
	}

	var result spotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// Lookup returns the first Spotify hit for query, or nil when there is none.
func (c *SpotifyClient) Lookup(ctx context.Context, query string, kind models.CatalogKind) (*Result, error) {
	var searchType string
	switch kind {
	case models.KindSong:
		searchType = "track"
	case models.KindAlbum:
		searchType = "album"
	case models.KindArtist:
		searchType = "artist"
	default:
		return nil, fmt.Errorf("unsupported catalog kind %q", kind)
	}

	resp, err := c.search(ctx, query, searchType)
	if err != nil {
		return nil, err
	}

	switch kind {
	case models.KindSong:
		if resp.Tracks == nil || len(resp.Tracks.Items) == 0 {
			return nil, nil
		}
		t := resp.Tracks.Items[0]
		return &Result{
			Kind:       models.KindSong,
			Title:      t.Name,
			Artist:     joinArtists(t.Artists),
			Album:      t.Album.Name,
			CoverURL:   firstImage(t.Album.Images),
			SpotifyURL: t.ExternalURLs.Spotify,
			EmbedURL:   spotifyEmbedTrackURL + t.ID,
		}, nil
	case models.KindAlbum:
		if resp.Albums == nil || len(resp.Albums.Items) == 0 {
			return nil, nil
		}
		a := resp.Albums.Items[0]
		return &Result{
			Kind:        models.KindAlbum,
			Title:       a.Name,
			Artist:      joinArtists(a.Artists),
			ReleaseDate: a.ReleaseDate,
			CoverURL:    firstImage(a.Images),
			SpotifyURL:  a.ExternalURLs.Spotify,
		}, nil
	default:
		if resp.Artists == nil || len(resp.Artists.Items) == 0 {
			return nil, nil
		}
		a := resp.Artists.Items[0]
		return &Result{
			Kind:       models.KindArtist,
			Name:       a.Name,
			Genres:     a.Genres,
			CoverURL:   firstImage(a.Images),
			SpotifyURL: a.ExternalURLs.Spotify,
		}, nil
	}
}

func joinArtists(artists []spotifySimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func firstImage(images []spotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
