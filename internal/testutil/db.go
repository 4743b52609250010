// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"resonate/internal/database"
	"resonate/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns an isolated in-memory database with the full schema migrated.
// A single connection is used so the in-memory database lives as long as the handle.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user and profile with the given username and genre.
func CreateUser(t *testing.T, db *gorm.DB, username, genre string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{
		Username: username,
		Email:    strings.ToLower(username) + "@example.com",
		Password: string(hash),
		Profile: models.Profile{
			ProfilePicture: models.DefaultProfilePicture,
			FavoriteGenre:  genre,
		},
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreatePost inserts a post by author at the given time.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, content string, at time.Time, opts ...func(*models.Post)) *models.Post {
	t.Helper()

	p := &models.Post{UserID: author.ID, Content: content, CreatedAt: at, UpdatedAt: at}
	for _, opt := range opts {
		opt(p)
	}
	if err := db.Omit("User", "Song", "Album", "Artist").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

// Follow inserts a follow edge.
func Follow(t *testing.T, db *gorm.DB, follower, followed *models.User) {
	t.Helper()
	if err := db.Omit("Follower", "Followed").Create(&models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}).Error; err != nil {
		t.Fatalf("follow: %v", err)
	}
}

// Like inserts a like by user on post.
func Like(t *testing.T, db *gorm.DB, user *models.User, post *models.Post) {
	t.Helper()
	if err := db.Omit("User", "Post").Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error; err != nil {
		t.Fatalf("like: %v", err)
	}
}

// CreateSong inserts a catalog song.
func CreateSong(t *testing.T, db *gorm.DB, title, artist string) *models.Song {
	t.Helper()
	s := &models.Song{Title: title, Artist: artist, SpotifyURL: "https://open.spotify.com/track/" + uuid.NewString()[:8]}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create song: %v", err)
	}
	return s
}

// WithSong attaches song to a post built by CreatePost.
func WithSong(song *models.Song) func(*models.Post) {
	return func(p *models.Post) { p.SongID = &song.ID }
}

// At returns a fixed timestamp n minutes after a base instant, for ordering fixtures.
func At(n int) time.Time {
	return time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute)
}

// CreateComment inserts a comment by user on post.
func CreateComment(t *testing.T, db *gorm.DB, user *models.User, post *models.Post, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{UserID: user.ID, PostID: post.ID, Content: content}
	if err := db.Omit("User", "Post").Create(c).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}
