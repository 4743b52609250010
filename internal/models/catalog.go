package models

import (
	"strings"
	"time"
)

// CatalogKind names one of the three music entity kinds.
type CatalogKind string

const (
	KindSong   CatalogKind = "song"
	KindAlbum  CatalogKind = "album"
	KindArtist CatalogKind = "artist"
)

// ParseCatalogKind accepts singular or plural kind names.
func ParseCatalogKind(s string) (CatalogKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "song", "songs", "track", "tracks":
		return KindSong, nil
	case "album", "albums":
		return KindAlbum, nil
	case "artist", "artists":
		return KindArtist, nil
	}
	return "", NewValidationError("Invalid type, must be one of song, album, artist")
}

// Song is a cached catalog track, unique by (title, artist).
type Song struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:200;not null;uniqueIndex:idx_songs_identity" json:"title"`
	Artist     string    `gorm:"size:200;not null;uniqueIndex:idx_songs_identity" json:"artist"`
	Album      string    `gorm:"size:200" json:"album"`
	CoverURL   string    `gorm:"size:500" json:"cover_url"`
	SpotifyURL string    `gorm:"size:500" json:"spotify_url"`
	EmbedURL   string    `gorm:"size:500" json:"embed_url"`
	CreatedAt  time.Time `json:"-"`
}

// Album is a cached catalog album, unique by (title, artist).
type Album struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null;uniqueIndex:idx_albums_identity" json:"title"`
	Artist      string    `gorm:"size:200;not null;uniqueIndex:idx_albums_identity" json:"artist"`
	CoverURL    string    `gorm:"size:500" json:"cover_url"`
	SpotifyURL  string    `gorm:"size:500" json:"spotify_url"`
	ReleaseDate string    `gorm:"size:32" json:"release_date,omitempty"`
	CreatedAt   time.Time `json:"-"`
}

// Artist is a cached catalog artist, unique by name.
type Artist struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:200;not null;uniqueIndex" json:"name"`
	CoverURL   string    `gorm:"size:500" json:"cover_url"`
	SpotifyURL string    `gorm:"size:500" json:"spotify_url"`
	Genres     string    `gorm:"size:500" json:"genres,omitempty"`
	CreatedAt  time.Time `json:"-"`
}

// CatalogEntry is the kind-agnostic view of a Song, Album or Artist.
type CatalogEntry struct {
	Kind        CatalogKind `json:"type"`
	ID          uint        `json:"id"`
	Title       string      `json:"title,omitempty"`
	Artist      string      `json:"artist,omitempty"`
	Name        string      `json:"name,omitempty"`
	Album       string      `json:"album,omitempty"`
	CoverURL    string      `json:"cover_url"`
	SpotifyURL  string      `json:"spotify_url"`
	EmbedURL    string      `json:"embed_url,omitempty"`
	ReleaseDate string      `json:"release_date,omitempty"`
	Genres      string      `json:"genres,omitempty"`
}

func (s Song) Entry() CatalogEntry {
	return CatalogEntry{
		Kind: KindSong, ID: s.ID, Title: s.Title, Artist: s.Artist, Album: s.Album,
		CoverURL: s.CoverURL, SpotifyURL: s.SpotifyURL, EmbedURL: s.EmbedURL,
	}
}

func (a Album) Entry() CatalogEntry {
	return CatalogEntry{
		Kind: KindAlbum, ID: a.ID, Title: a.Title, Artist: a.Artist,
		CoverURL: a.CoverURL, SpotifyURL: a.SpotifyURL, ReleaseDate: a.ReleaseDate,
	}
}

func (a Artist) Entry() CatalogEntry {
	return CatalogEntry{
		Kind: KindArtist, ID: a.ID, Name: a.Name,
		CoverURL: a.CoverURL, SpotifyURL: a.SpotifyURL, Genres: a.Genres,
	}
}

// TrendingEntry is a ranked catalog entity with its engagement breakdown.
type TrendingEntry struct {
	CatalogEntry
	PostCount       int64 `json:"post_count"`
	LikeCount       int64 `json:"like_count"`
	PopularityScore int64 `json:"popularity_score"`
}
