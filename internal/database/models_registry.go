package database

import "resonate/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Song{},
		&models.Album{},
		&models.Artist{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
		&models.Follow{},
		&models.FavoriteSong{},
		&models.FavoriteAlbum{},
		&models.FavoriteArtist{},
	}
}
