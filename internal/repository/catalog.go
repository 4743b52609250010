package repository

import (
	"context"
	"errors"
	"fmt"

	"resonate/internal/models"
	"resonate/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository stores songs, albums and artists keyed by their identity.
type CatalogRepository interface {
	FindSong(ctx context.Context, title, artist string) (*models.Song, error)
	FindAlbum(ctx context.Context, title, artist string) (*models.Album, error)
	FindArtist(ctx context.Context, name string) (*models.Artist, error)
	UpsertSong(ctx context.Context, song *models.Song) (*models.Song, error)
	UpsertAlbum(ctx context.Context, album *models.Album) (*models.Album, error)
	UpsertArtist(ctx context.Context, artist *models.Artist) (*models.Artist, error)
	Exists(ctx context.Context, kind models.CatalogKind, id uint) (bool, error)
	Trending(ctx context.Context, kind models.CatalogKind, limit int) ([]models.TrendingEntry, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// catalogTables maps a kind to its table and the posts column referencing it.
var catalogTables = map[models.CatalogKind]struct {
	table  string
	postFK string
}{
	models.KindSong:   {"songs", "song_id"},
	models.KindAlbum:  {"albums", "album_id"},
	models.KindArtist: {"artists", "artist_id"},
}

// findOne returns nil, nil on a miss.
func findOne[T any](db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var row T
	err := db.Where(query, args...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &row, nil
}

func (r *catalogRepository) FindSong(ctx context.Context, title, artist string) (*models.Song, error) {
	return findOne[models.Song](r.db.WithContext(ctx), "title = ? AND artist = ?", title, artist)
}

func (r *catalogRepository) FindAlbum(ctx context.Context, title, artist string) (*models.Album, error) {
	return findOne[models.Album](r.db.WithContext(ctx), "title = ? AND artist = ?", title, artist)
}

func (r *catalogRepository) FindArtist(ctx context.Context, name string) (*models.Artist, error) {
	return findOne[models.Artist](r.db.WithContext(ctx), "name = ?", name)
}

// UpsertSong inserts song unless its identity exists, then returns the stored row.
// Concurrent callers with the same identity get the same row.
func (r *catalogRepository) UpsertSong(ctx context.Context, song *models.Song) (*models.Song, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(song).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	stored, err := findOne[models.Song](db, "title = ? AND artist = ?", song.Title, song.Artist)
	if err == nil && stored == nil {
		err = models.NewInternalError(fmt.Errorf("song %q by %q vanished after upsert", song.Title, song.Artist))
	}
	return stored, err
}

func (r *catalogRepository) UpsertAlbum(ctx context.Context, album *models.Album) (*models.Album, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(album).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	stored, err := findOne[models.Album](db, "title = ? AND artist = ?", album.Title, album.Artist)
	if err == nil && stored == nil {
		err = models.NewInternalError(fmt.Errorf("album %q by %q vanished after upsert", album.Title, album.Artist))
	}
	return stored, err
}

func (r *catalogRepository) UpsertArtist(ctx context.Context, artist *models.Artist) (*models.Artist, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(artist).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	stored, err := findOne[models.Artist](db, "name = ?", artist.Name)
	if err == nil && stored == nil {
		err = models.NewInternalError(fmt.Errorf("artist %q vanished after upsert", artist.Name))
	}
	return stored, err
}

func (r *catalogRepository) Exists(ctx context.Context, kind models.CatalogKind, id uint) (bool, error) {
	t, ok := catalogTables[kind]
	if !ok {
		return false, models.NewValidationError(fmt.Sprintf("unknown catalog kind %q", kind))
	}
	var count int64
	if err := r.db.WithContext(ctx).Table(t.table).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

type trendingRow struct {
	ID        uint
	PostCount int64
	LikeCount int64
}

// Trending ranks entities referenced by at least one post by
// distinct posts plus likes on those posts, ties broken by id.
func (r *catalogRepository) Trending(ctx context.Context, kind models.CatalogKind, limit int) ([]models.TrendingEntry, error) {
	t, ok := catalogTables[kind]
	if !ok {
		return nil, models.NewValidationError(fmt.Sprintf("unknown catalog kind %q", kind))
	}
	defer observability.TrackQuery("trending", t.table)()

	db := readDB(r.db).WithContext(ctx)

	var rows []trendingRow
	err := db.Table(t.table).
		Select(t.table + ".id AS id, COUNT(DISTINCT posts.id) AS post_count, COUNT(likes.id) AS like_count").
		Joins("JOIN posts ON posts." + t.postFK + " = " + t.table + ".id").
		Joins("LEFT JOIN likes ON likes.post_id = posts.id").
		Group(t.table + ".id").
		Order("COUNT(DISTINCT posts.id) + COUNT(likes.id) DESC").
		Order(t.table + ".id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(rows) == 0 {
		return []models.TrendingEntry{}, nil
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	entries, err := r.entriesByID(db, kind, ids)
	if err != nil {
		return nil, err
	}

	ranked := make([]models.TrendingEntry, 0, len(rows))
	for _, row := range rows {
		entry, ok := entries[row.ID]
		if !ok {
			continue
		}
		ranked = append(ranked, models.TrendingEntry{
			CatalogEntry:    entry,
			PostCount:       row.PostCount,
			LikeCount:       row.LikeCount,
			PopularityScore: row.PostCount + row.LikeCount,
		})
	}
	return ranked, nil
}

func (r *catalogRepository) entriesByID(db *gorm.DB, kind models.CatalogKind, ids []uint) (map[uint]models.CatalogEntry, error) {
	out := make(map[uint]models.CatalogEntry, len(ids))
	var err error
	switch kind {
	case models.KindSong:
		var songs []models.Song
		if err = db.Where("id IN ?", ids).Find(&songs).Error; err == nil {
			for _, s := range songs {
				out[s.ID] = s.Entry()
			}
		}
	case models.KindAlbum:
		var albums []models.Album
		if err = db.Where("id IN ?", ids).Find(&albums).Error; err == nil {
			for _, a := range albums {
				out[a.ID] = a.Entry()
			}
		}
	case models.KindArtist:
		var artists []models.Artist
		if err = db.Where("id IN ?", ids).Find(&artists).Error; err == nil {
			for _, a := range artists {
				out[a.ID] = a.Entry()
			}
		}
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
