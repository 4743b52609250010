package models

import (
	"time"
)

// Follow is a directed edge: FollowerID's feed includes FollowedID's posts.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follows_pair,priority:1" json:"follower_id"`
	Follower   User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follows_pair,priority:2;index" json:"followed_id"`
	Followed   User      `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowToggle is the outcome of toggling a follow edge.
type FollowToggle struct {
	Action         string `json:"action"`
	FollowersCount int64  `json:"followers_count"`
}

const (
	ActionFollow   = "follow"
	ActionUnfollow = "unfollow"
)

// FavoriteSong links a user to a saved song.
type FavoriteSong struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_songs_pair"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	SongID    uint      `gorm:"not null;uniqueIndex:idx_favorite_songs_pair;index"`
	Song      Song      `gorm:"foreignKey:SongID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// FavoriteAlbum links a user to a saved album.
type FavoriteAlbum struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_albums_pair"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AlbumID   uint      `gorm:"not null;uniqueIndex:idx_favorite_albums_pair;index"`
	Album     Album     `gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// FavoriteArtist links a user to a saved artist.
type FavoriteArtist struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_artists_pair"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ArtistID  uint      `gorm:"not null;uniqueIndex:idx_favorite_artists_pair;index"`
	Artist    Artist    `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// Favorites groups a user's saved entities. The slices are never nil.
type Favorites struct {
	Songs   []Song   `json:"songs"`
	Albums  []Album  `json:"albums"`
	Artists []Artist `json:"artists"`
}

// ProfileView is the public profile page of a user as seen by a viewer.
type ProfileView struct {
	ID             uint          `json:"id"`
	Username       string        `json:"username"`
	ProfilePicture string        `json:"profile_picture"`
	Bio            string        `json:"bio"`
	FavoriteGenre  string        `json:"favorite_genre"`
	SongOfTheDay   *SongOfTheDay `json:"song_of_the_day"`
	FollowersCount int64         `json:"followers_count"`
	FollowingCount int64         `json:"following_count"`
	IsFollowing    bool          `json:"is_following"`
	IsSelf         bool          `json:"is_self"`
	Favorites      Favorites     `json:"favorites"`
	CreatedAt      time.Time     `json:"created_at"`
}
