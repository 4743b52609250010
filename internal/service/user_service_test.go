package service

import (
	"context"
	"testing"

	"resonate/internal/models"
	"resonate/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:        "miles",
		Email:           "Miles@Example.com",
		Password:        "kindofblue59",
		ConfirmPassword: "kindofblue59",
		FavoriteGenre:   "jazz",
	}
}

func TestUserService_Register(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	user, err := s.users.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "miles@example.com", user.Email)
	assert.NotEqual(t, "kindofblue59", user.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("kindofblue59")))

	stored, err := s.users.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "jazz", stored.Profile.FavoriteGenre)
	assert.Equal(t, models.DefaultProfilePicture, stored.Profile.ProfilePicture)

	_, err = s.users.Register(ctx, validRegistration())
	assertCode(t, err, models.CodeConflict)
}

func TestUserService_RegisterValidation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"Missing Username", func(in *RegisterInput) { in.Username = "" }},
		{"Bad Username", func(in *RegisterInput) { in.Username = "-miles" }},
		{"Bad Email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"Short Password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "short", "short" }},
		{"Mismatch", func(in *RegisterInput) { in.ConfirmPassword = "somethingelse" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			tt.mutate(&in)
			_, err := s.users.Register(ctx, in)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	_, err := s.users.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, err := s.users.Authenticate(ctx, "miles", "kindofblue59")
	require.NoError(t, err)
	assert.Equal(t, "miles", user.Username)

	_, err = s.users.Authenticate(ctx, "miles", "wrong-password")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = s.users.Authenticate(ctx, "nobody", "kindofblue59")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = s.users.Authenticate(ctx, "", "")
	assertCode(t, err, models.CodeValidation)
}

func TestUserService_GetProfile(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "jazz")
	bob := testutil.CreateUser(t, s.db, "bob", "rock")
	testutil.Follow(t, s.db, bob, alice)

	_, err := s.favorites.AddFavorite(ctx, alice.ID, models.KindSong, CatalogQuery{
		Title: "Naima", Artist: "John Coltrane", SpotifyURL: "https://open.spotify.com/track/naima",
	})
	require.NoError(t, err)
	_, err = s.users.UpdateProfile(ctx, alice.ID, UpdateProfileInput{
		SOTDTitle:  strPtr("Naima"),
		SOTDArtist: strPtr("John Coltrane"),
	})
	require.NoError(t, err)

	view, err := s.users.GetProfile(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.FollowersCount)
	assert.Zero(t, view.FollowingCount)
	assert.True(t, view.IsFollowing)
	assert.False(t, view.IsSelf)
	require.Len(t, view.Favorites.Songs, 1)
	assert.Empty(t, view.Favorites.Albums)
	require.NotNil(t, view.SongOfTheDay)
	assert.Equal(t, "Naima", view.SongOfTheDay.Title)

	self, err := s.users.GetProfile(ctx, "alice", alice.ID)
	require.NoError(t, err)
	assert.True(t, self.IsSelf)
	assert.False(t, self.IsFollowing)

	_, err = s.users.GetProfile(ctx, "nobody", 0)
	assertCode(t, err, models.CodeNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "jazz")
	testutil.CreateUser(t, s.db, "bob", "")

	updated, err := s.users.UpdateProfile(ctx, alice.ID, UpdateProfileInput{
		Bio:            strPtr("  listens a lot "),
		ProfilePicture: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "listens a lot", updated.Profile.Bio)
	assert.Equal(t, "jazz", updated.Profile.FavoriteGenre, "untouched fields keep their value")
	assert.Equal(t, models.DefaultProfilePicture, updated.Profile.ProfilePicture)

	_, err = s.users.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Email: strPtr("bob@example.com")})
	assertCode(t, err, models.CodeConflict)

	_, err = s.users.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Email: strPtr("nope")})
	assertCode(t, err, models.CodeValidation)

	updated, err = s.users.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Email: strPtr("Alice@New.example.com")})
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example.com", updated.Email)
}

func TestUserService_DeleteAccount(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "")
	bob := testutil.CreateUser(t, s.db, "bob", "")
	post := testutil.CreatePost(t, s.db, alice, "hi", testutil.At(1))
	testutil.Like(t, s.db, bob, post)
	testutil.Follow(t, s.db, bob, alice)

	require.NoError(t, s.users.DeleteAccount(ctx, alice.ID))

	_, err := s.users.GetProfile(ctx, "alice", 0)
	assertCode(t, err, models.CodeNotFound)

	var likes, follows int64
	require.NoError(t, s.db.Model(&models.Like{}).Count(&likes).Error)
	require.NoError(t, s.db.Model(&models.Follow{}).Count(&follows).Error)
	assert.Zero(t, likes)
	assert.Zero(t, follows)

	assertCode(t, s.users.DeleteAccount(ctx, alice.ID), models.CodeNotFound)
}
