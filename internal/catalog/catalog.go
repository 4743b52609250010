// Package catalog resolves free-text music queries against an external catalog.
//
// A Lookup returns (nil, nil) when the catalog has no match. Errors are
// transport or upstream failures; callers treat them as "no result" after
// logging, so the rest of the application never depends on the catalog being up.
package catalog

import (
	"context"
	"errors"
	"strings"

	"resonate/internal/config"
	"resonate/internal/models"
)

// ErrUnavailable is returned when the lookup was refused locally (breaker open, rate limited).
var ErrUnavailable = errors.New("catalog unavailable")

// Result is one normalized catalog hit.
type Result struct {
	Kind        models.CatalogKind
	Title       string
	Artist      string
	Album       string
	Name        string
	CoverURL    string
	SpotifyURL  string
	EmbedURL    string
	ReleaseDate string
	Genres      []string
}

// Lookup finds the best match for query among entities of kind.
type Lookup interface {
	Lookup(ctx context.Context, query string, kind models.CatalogKind) (*Result, error)
}

// Disabled is used when no catalog credentials are configured. It never finds anything.
type Disabled struct{}

func (Disabled) Lookup(context.Context, string, models.CatalogKind) (*Result, error) {
	return nil, nil
}

// New builds the catalog lookup described by cfg.
func New(cfg *config.Config) Lookup {
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return Disabled{}
	}
	client := NewSpotifyClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret,
		WithAPIURL(cfg.SpotifyAPIURL),
		WithTokenURL(cfg.SpotifyTokenURL),
		WithTimeout(cfg.CatalogTimeout()),
	)
	return NewResilient(client, ResilienceConfig{
		Timeout:         cfg.CatalogTimeout(),
		RatePerSecond:   cfg.CatalogRatePerSecond,
		Burst:           cfg.CatalogBurst,
		BreakerFailures: cfg.CatalogBreakerFails,
	})
}

func (r *Result) Song() *models.Song {
	return &models.Song{
		Title:      r.Title,
		Artist:     r.Artist,
		Album:      r.Album,
		CoverURL:   r.CoverURL,
		SpotifyURL: r.SpotifyURL,
		EmbedURL:   r.EmbedURL,
	}
}

func (r *Result) AlbumModel() *models.Album {
	return &models.Album{
		Title:       r.Title,
		Artist:      r.Artist,
		CoverURL:    r.CoverURL,
		SpotifyURL:  r.SpotifyURL,
		ReleaseDate: r.ReleaseDate,
	}
}

func (r *Result) ArtistModel() *models.Artist {
	return &models.Artist{
		Name:       r.Name,
		CoverURL:   r.CoverURL,
		SpotifyURL: r.SpotifyURL,
		Genres:     strings.Join(r.Genres, ", "),
	}
}
