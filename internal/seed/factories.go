// Package seed creates demo data for development databases and tests.
package seed

import (
	"fmt"
	"strings"
	"time"

	"resonate/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

var genres = []string{
	"jazz", "rock", "hip-hop", "electronic", "classical", "soul", "metal", "folk", "pop", "ambient",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
	hash  string
	seq   int
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hash := DefaultPassword
	if !opts.SkipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(hashed)
	}

	return &Factory{db: db, faker: gofakeit.New(seed), opts: opts, hash: hash}, nil
}

// pick returns a random index below n.
func (f *Factory) pick(n int) int {
	return f.faker.Number(0, n-1)
}

// CreateUser constructs and persists a user with a profile.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	username := fmt.Sprintf("%s_%d", strings.ToLower(f.faker.Username()), f.seq)
	user := &models.User{
		Username: username,
		Email:    username + "@" + f.faker.DomainName(),
		Password: f.hash,
		Profile: models.Profile{
			ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
			Bio:            f.faker.Sentence(10),
			FavoriteGenre:  genres[f.pick(len(genres))],
		},
	}
	if f.faker.Bool() {
		song := demoSongs[f.pick(len(demoSongs))]
		user.Profile.SOTDTitle = song.Title
		user.Profile.SOTDArtist = song.Artist
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a post by user, created somewhere in the last
// opts.MaxDays days.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	age := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	created := time.Now().Add(-age)

	post := &models.Post{
		UserID:    user.ID,
		Content:   f.faker.Paragraph(1, 2, 12, " "),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Omit("User", "Song", "Album", "Artist").Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment constructs and persists a comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	at := post.CreatedAt.Add(time.Duration(f.faker.Number(1, 600)) * time.Minute)
	if now := time.Now(); at.After(now) {
		at = now
	}
	comment := &models.Comment{
		Content:   f.faker.Sentence(8),
		UserID:    user.ID,
		PostID:    post.ID,
		CreatedAt: at,
	}
	if err := f.db.Omit("User", "Post").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post. Existing likes are left alone.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	like := &models.Like{UserID: user.ID, PostID: post.ID}
	return f.db.Omit("User", "Post").Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
}

// CreateFollow persists follower -> followed. Self edges are skipped.
func (f *Factory) CreateFollow(follower, followed *models.User) error {
	if follower.ID == followed.ID {
		return nil
	}
	edge := &models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
	return f.db.Omit("Follower", "Followed").Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error
}
