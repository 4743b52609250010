package repository

import (
	"context"
	"fmt"

	"resonate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepository manages the user to catalog favorite edges.
type FavoriteRepository interface {
	Add(ctx context.Context, userID uint, kind models.CatalogKind, entityID uint) (bool, error)
	Remove(ctx context.Context, userID uint, kind models.CatalogKind, entityID uint) (bool, error)
	List(ctx context.Context, userID uint, kind models.CatalogKind) ([]models.CatalogEntry, error)
	ListAll(ctx context.Context, userID uint) (*models.Favorites, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func favoriteEdge(userID uint, kind models.CatalogKind, entityID uint) (interface{}, string, error) {
	switch kind {
	case models.KindSong:
		return &models.FavoriteSong{UserID: userID, SongID: entityID}, "song_id", nil
	case models.KindAlbum:
		return &models.FavoriteAlbum{UserID: userID, AlbumID: entityID}, "album_id", nil
	case models.KindArtist:
		return &models.FavoriteArtist{UserID: userID, ArtistID: entityID}, "artist_id", nil
	}
	return nil, "", models.NewValidationError(fmt.Sprintf("unknown catalog kind %q", kind))
}

// Add inserts the edge unless present. It reports whether a new edge was written.
func (r *favoriteRepository) Add(ctx context.Context, userID uint, kind models.CatalogKind, entityID uint) (bool, error) {
	edge, _, err := favoriteEdge(userID, kind, entityID)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(edge)
	if res.Error != nil {
		return false, writeErr(res.Error, "User", userID)
	}
	return res.RowsAffected > 0, nil
}

// Remove deletes the edge and reports whether it existed.
func (r *favoriteRepository) Remove(ctx context.Context, userID uint, kind models.CatalogKind, entityID uint) (bool, error) {
	edge, column, err := favoriteEdge(0, kind, 0)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND "+column+" = ?", userID, entityID).
		Delete(edge)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// List returns the user's favorites of one kind, oldest first.
func (r *favoriteRepository) List(ctx context.Context, userID uint, kind models.CatalogKind) ([]models.CatalogEntry, error) {
	db := readDB(r.db).WithContext(ctx)
	entries := []models.CatalogEntry{}

	switch kind {
	case models.KindSong:
		songs, err := favoritesOf[models.Song](db, "songs", "favorite_songs", "song_id", userID)
		if err != nil {
			return nil, err
		}
		for _, s := range songs {
			entries = append(entries, s.Entry())
		}
	case models.KindAlbum:
		albums, err := favoritesOf[models.Album](db, "albums", "favorite_albums", "album_id", userID)
		if err != nil {
			return nil, err
		}
		for _, a := range albums {
			entries = append(entries, a.Entry())
		}
	case models.KindArtist:
		artists, err := favoritesOf[models.Artist](db, "artists", "favorite_artists", "artist_id", userID)
		if err != nil {
			return nil, err
		}
		for _, a := range artists {
			entries = append(entries, a.Entry())
		}
	default:
		return nil, models.NewValidationError(fmt.Sprintf("unknown catalog kind %q", kind))
	}
	return entries, nil
}

// ListAll returns every favorite of the user grouped by kind.
func (r *favoriteRepository) ListAll(ctx context.Context, userID uint) (*models.Favorites, error) {
	db := readDB(r.db).WithContext(ctx)

	songs, err := favoritesOf[models.Song](db, "songs", "favorite_songs", "song_id", userID)
	if err != nil {
		return nil, err
	}
	albums, err := favoritesOf[models.Album](db, "albums", "favorite_albums", "album_id", userID)
	if err != nil {
		return nil, err
	}
	artists, err := favoritesOf[models.Artist](db, "artists", "favorite_artists", "artist_id", userID)
	if err != nil {
		return nil, err
	}
	return &models.Favorites{Songs: songs, Albums: albums, Artists: artists}, nil
}

func favoritesOf[T any](db *gorm.DB, table, edgeTable, column string, userID uint) ([]T, error) {
	rows := []T{}
	err := db.Table(table).
		Select(table+".*").
		Joins("JOIN "+edgeTable+" ON "+edgeTable+"."+column+" = "+table+".id").
		Where(edgeTable+".user_id = ?", userID).
		Order(edgeTable + ".created_at ASC").
		Order(edgeTable + ".id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}
