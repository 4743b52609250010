package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"resonate/internal/cache"
	"resonate/internal/models"
	"resonate/internal/repository"
	"resonate/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePostValidation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "")
	song := testutil.CreateSong(t, s.db, "Naima", "John Coltrane")

	tests := []struct {
		name string
		in   CreatePostInput
		code string
	}{
		{"Blank", CreatePostInput{UserID: alice.ID, Content: "   "}, models.CodeValidation},
		{"Too Long", CreatePostInput{UserID: alice.ID, Content: strings.Repeat("a", 5001)}, models.CodeValidation},
		{"Two Refs", CreatePostInput{UserID: alice.ID, Content: "x", SongID: uintPtr(song.ID), ArtistID: uintPtr(1)}, models.CodeValidation},
		{"Unknown Song", CreatePostInput{UserID: alice.ID, Content: "x", SongID: uintPtr(999)}, models.CodeNotFound},
		{"Unknown Album", CreatePostInput{UserID: alice.ID, Content: "x", AlbumID: uintPtr(999)}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.posts.CreatePost(ctx, tt.in)
			assertCode(t, err, tt.code)
		})
	}

	var count int64
	require.NoError(t, s.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostService_CreatePostWithSong(t *testing.T) {
	s := newServices(t)
	alice := testutil.CreateUser(t, s.db, "alice", "")
	song := testutil.CreateSong(t, s.db, "Naima", "John Coltrane")

	post, err := s.posts.CreatePost(context.Background(), CreatePostInput{
		UserID:  alice.ID,
		Content: "  on repeat  ",
		SongID:  uintPtr(song.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "on repeat", post.Content)
	require.NotNil(t, post.Song)
	assert.Equal(t, "Naima", post.Song.Title)
	assert.Equal(t, "alice", post.Author.Username)
	assert.Zero(t, post.LikesCount)
}

func TestPostService_FeedShowsOwnAndFollowedPosts(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "")
	bob := testutil.CreateUser(t, s.db, "bob", "")
	carol := testutil.CreateUser(t, s.db, "carol", "")
	testutil.Follow(t, s.db, alice, bob)

	p1 := testutil.CreatePost(t, s.db, alice, "P1", testutil.At(1))
	p2 := testutil.CreatePost(t, s.db, bob, "P2", testutil.At(2))
	testutil.CreatePost(t, s.db, carol, "C", testutil.At(3))
	p3 := testutil.CreatePost(t, s.db, bob, "P3", testutil.At(4))
	testutil.Like(t, s.db, carol, p3)

	first, err := s.posts.GetFeed(ctx, alice.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, p3.ID, first.Items[0].ID)
	assert.Equal(t, p2.ID, first.Items[1].ID)
	assert.Equal(t, int64(1), first.Items[0].LikesCount)
	assert.Equal(t, int64(3), first.TotalItems)
	assert.True(t, first.HasNext)

	second, err := s.posts.GetFeed(ctx, alice.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, p1.ID, second.Items[0].ID)
	assert.False(t, second.HasNext)

	anon, err := s.posts.GetFeed(ctx, 0, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), anon.TotalItems)

	byBob, err := s.posts.GetUserPosts(ctx, "bob", alice.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byBob.TotalItems)

	_, err = s.posts.GetUserPosts(ctx, "nobody", alice.ID, 1, 10)
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_OnlyAuthorMayChangePost(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "")
	bob := testutil.CreateUser(t, s.db, "bob", "")
	post := testutil.CreatePost(t, s.db, alice, "original", testutil.At(1))
	testutil.Like(t, s.db, bob, post)

	_, err := s.posts.UpdatePost(ctx, UpdatePostInput{UserID: bob.ID, PostID: post.ID, Content: "hijacked"})
	assertCode(t, err, models.CodeForbidden)

	err = s.posts.DeletePost(ctx, post.ID, bob.ID)
	assertCode(t, err, models.CodeForbidden)

	stored, err := s.posts.GetPost(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Content)
	assert.Equal(t, int64(1), stored.LikesCount)

	updated, err := s.posts.UpdatePost(ctx, UpdatePostInput{UserID: alice.ID, PostID: post.ID, Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	_, err = s.posts.UpdatePost(ctx, UpdatePostInput{UserID: alice.ID, PostID: post.ID, Content: ""})
	assertCode(t, err, models.CodeValidation)

	require.NoError(t, s.posts.DeletePost(ctx, post.ID, alice.ID))
	_, err = s.posts.GetPost(ctx, post.ID, 0)
	assertCode(t, err, models.CodeNotFound)

	var likes int64
	require.NoError(t, s.db.Model(&models.Like{}).Count(&likes).Error)
	assert.Zero(t, likes)
}

func TestPostService_ToggleLike(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "")
	post := testutil.CreatePost(t, s.db, alice, "hi", testutil.At(1))

	_, err := s.posts.ToggleLike(ctx, post.ID, 0)
	assertCode(t, err, models.CodeUnauthorized)

	res, err := s.posts.ToggleLike(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionLiked, res.Action)
	assert.Equal(t, int64(1), res.LikesCount)

	viewed, err := s.posts.GetPost(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, viewed.LikedByUser)

	res, err = s.posts.ToggleLike(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionUnliked, res.Action)
	assert.Zero(t, res.LikesCount)
}

func TestPostService_GetPostCacheIsInvalidatedByLikes(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	s := newServices(t)
	ctx := context.Background()
	svc := NewPostService(
		repository.NewPostRepository(s.db),
		repository.NewUserRepository(s.db),
		repository.NewCatalogRepository(s.db),
		WithPostCacheTTL(time.Minute),
	)
	alice := testutil.CreateUser(t, s.db, "alice", "")
	bob := testutil.CreateUser(t, s.db, "bob", "")
	post := testutil.CreatePost(t, s.db, alice, "cached", testutil.At(1))

	first, err := svc.GetPost(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, first.LikesCount)
	assert.True(t, mr.Exists(cache.PostKey(post.ID)))

	_, err = svc.ToggleLike(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PostKey(post.ID)))

	second, err := svc.GetPost(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.LikesCount)
	assert.True(t, second.LikedByUser)

	// The cached copy is viewer independent.
	third, err := svc.GetPost(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, third.LikedByUser)
	assert.Equal(t, "alice", third.Author.Username)
}

func TestPostService_GetPostCacheIsInvalidatedByAccountDeletion(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	s := newServices(t)
	ctx := context.Background()
	svc := NewPostService(
		repository.NewPostRepository(s.db),
		repository.NewUserRepository(s.db),
		repository.NewCatalogRepository(s.db),
		WithPostCacheTTL(time.Minute),
	)
	gone := testutil.CreateUser(t, s.db, "gone", "")
	bob := testutil.CreateUser(t, s.db, "bob", "")
	own := testutil.CreatePost(t, s.db, gone, "farewell", testutil.At(1))
	other := testutil.CreatePost(t, s.db, bob, "still here", testutil.At(2))
	testutil.Like(t, s.db, gone, other)
	testutil.CreateComment(t, s.db, gone, other, "nice")

	_, err := svc.GetPost(ctx, own.ID, 0)
	require.NoError(t, err)
	cached, err := svc.GetPost(ctx, other.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.LikesCount)
	assert.Equal(t, int64(1), cached.CommentsCount)

	require.NoError(t, s.users.DeleteAccount(ctx, gone.ID))
	assert.False(t, mr.Exists(cache.PostKey(own.ID)))
	assert.False(t, mr.Exists(cache.PostKey(other.ID)))

	_, err = svc.GetPost(ctx, own.ID, 0)
	assertCode(t, err, models.CodeNotFound)

	fresh, err := svc.GetPost(ctx, other.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, fresh.LikesCount)
	assert.Zero(t, fresh.CommentsCount)
}

func TestDeletedAccountWritesAreNotFound(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "")
	gone := testutil.CreateUser(t, s.db, "gone", "")
	post := testutil.CreatePost(t, s.db, alice, "still here", testutil.At(1))
	require.NoError(t, s.users.DeleteAccount(ctx, gone.ID))

	_, err := s.posts.CreatePost(ctx, CreatePostInput{UserID: gone.ID, Content: "hi"})
	assertCode(t, err, models.CodeNotFound)

	_, err = s.comments.AddComment(ctx, post.ID, gone.ID, "hi")
	assertCode(t, err, models.CodeNotFound)

	_, err = s.posts.ToggleLike(ctx, post.ID, gone.ID)
	assertCode(t, err, models.CodeNotFound)

	_, err = s.favorites.AddFavorite(ctx, gone.ID, models.KindSong, CatalogQuery{
		Title: "Naima", Artist: "John Coltrane", SpotifyURL: "https://open.spotify.com/track/naima",
	})
	assertCode(t, err, models.CodeNotFound)

	_, err = s.follows.Follow(ctx, gone.ID, alice.ID)
	assertCode(t, err, models.CodeNotFound)

	var posts int64
	require.NoError(t, s.db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(1), posts)
}
