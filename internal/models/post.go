package models

import (
	"time"
)

// Post is authored by one user and references at most one catalog entity.
type Post struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	UserID   uint    `gorm:"not null;index:idx_posts_user_created,priority:1" json:"user_id"`
	User     User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	SongID   *uint   `gorm:"index" json:"song_id,omitempty"`
	Song     *Song   `gorm:"foreignKey:SongID;constraint:OnDelete:SET NULL" json:"song,omitempty"`
	AlbumID  *uint   `gorm:"index" json:"album_id,omitempty"`
	Album    *Album  `gorm:"foreignKey:AlbumID;constraint:OnDelete:SET NULL" json:"album,omitempty"`
	ArtistID *uint   `gorm:"index" json:"artist_id,omitempty"`
	Artist   *Artist `gorm:"foreignKey:ArtistID;constraint:OnDelete:SET NULL" json:"artist,omitempty"`

	// Computed per request, never stored.
	Author        Author `gorm:"-" json:"user"`
	LikesCount    int64  `gorm:"-" json:"likes_count"`
	CommentsCount int64  `gorm:"-" json:"comments_count"`
	LikedByUser   bool   `gorm:"-" json:"liked_by_user"`

	CreatedAt time.Time `gorm:"index:idx_posts_user_created,priority:2;index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MusicRefCount reports how many catalog references are set.
func (p *Post) MusicRefCount() int {
	n := 0
	for _, ref := range []*uint{p.SongID, p.AlbumID, p.ArtistID} {
		if ref != nil {
			n++
		}
	}
	return n
}

// Like is unique per (user, post).
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment belongs to a user and a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Author    Author    `gorm:"-" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeToggle is the outcome of toggling a like.
type LikeToggle struct {
	Action     string `json:"action"`
	LikesCount int64  `json:"likes_count"`
}

const (
	ActionLiked   = "liked"
	ActionUnliked = "unliked"
)
