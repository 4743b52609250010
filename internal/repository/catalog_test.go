package repository

import (
	"context"
	"sync"
	"testing"

	"resonate/internal/models"
	"resonate/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepository_UpsertConverges(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			song, err := repo.UpsertSong(ctx, &models.Song{Title: "So What", Artist: "Miles Davis", SpotifyURL: "https://open.spotify.com/track/x"})
			if assert.NoError(t, err) {
				ids[i] = song.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int64
	require.NoError(t, db.Model(&models.Song{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindSong(ctx, "So What", "Miles Davis")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ids[0], found.ID)

	missing, err := repo.FindSong(ctx, "So What", "Someone Else")
	require.NoError(t, err)
	assert.Nil(t, missing)

	artist, err := repo.UpsertArtist(ctx, &models.Artist{Name: "Miles Davis"})
	require.NoError(t, err)
	again, err := repo.UpsertArtist(ctx, &models.Artist{Name: "Miles Davis", Genres: "jazz"})
	require.NoError(t, err)
	assert.Equal(t, artist.ID, again.ID)
	assert.Empty(t, again.Genres, "first write wins")

	album, err := repo.UpsertAlbum(ctx, &models.Album{Title: "Kind of Blue", Artist: "Miles Davis"})
	require.NoError(t, err)
	ok, err := repo.Exists(ctx, models.KindAlbum, album.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, models.KindAlbum, album.ID+100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalogRepository_TrendingRanksByPostsPlusLikes(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	users := []*models.User{
		testutil.CreateUser(t, db, "u1", ""),
		testutil.CreateUser(t, db, "u2", ""),
		testutil.CreateUser(t, db, "u3", ""),
	}
	// T is created first so a bare id ordering would favor it.
	songT := testutil.CreateSong(t, db, "T", "X")
	songS := testutil.CreateSong(t, db, "S", "X")
	testutil.CreateSong(t, db, "Unreferenced", "X")

	var sPosts, tPosts []*models.Post
	for i, u := range users {
		sPosts = append(sPosts, testutil.CreatePost(t, db, u, "s", testutil.At(i), testutil.WithSong(songS)))
		tPosts = append(tPosts, testutil.CreatePost(t, db, u, "t", testutil.At(10+i), testutil.WithSong(songT)))
	}
	// S: 5 likes over its posts, T: 2.
	testutil.Like(t, db, users[0], sPosts[0])
	testutil.Like(t, db, users[1], sPosts[0])
	testutil.Like(t, db, users[2], sPosts[0])
	testutil.Like(t, db, users[0], sPosts[1])
	testutil.Like(t, db, users[1], sPosts[2])
	testutil.Like(t, db, users[0], tPosts[0])
	testutil.Like(t, db, users[1], tPosts[1])

	ranked, err := repo.Trending(ctx, models.KindSong, 5)
	require.NoError(t, err)
	require.Len(t, ranked, 2, "entities without posts are not ranked")

	assert.Equal(t, songS.ID, ranked[0].ID)
	assert.Equal(t, int64(3), ranked[0].PostCount)
	assert.Equal(t, int64(5), ranked[0].LikeCount)
	assert.Equal(t, int64(8), ranked[0].PopularityScore)
	assert.Equal(t, models.KindSong, ranked[0].Kind)

	assert.Equal(t, songT.ID, ranked[1].ID)
	assert.Equal(t, int64(5), ranked[1].PopularityScore)

	top, err := repo.Trending(ctx, models.KindSong, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	none, err := repo.Trending(ctx, models.KindArtist, 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCatalogRepository_TrendingTiesBreakOnLowerID(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	u1 := testutil.CreateUser(t, db, "u1", "")
	u2 := testutil.CreateUser(t, db, "u2", "")
	u3 := testutil.CreateUser(t, db, "u3", "")
	low := testutil.CreateSong(t, db, "Low", "X")
	high := testutil.CreateSong(t, db, "High", "X")
	require.Less(t, low.ID, high.ID)

	// Low: 1 post + 2 likes. High: 3 posts + 0 likes. Both score 3.
	lowPost := testutil.CreatePost(t, db, u1, "low", testutil.At(0), testutil.WithSong(low))
	testutil.Like(t, db, u2, lowPost)
	testutil.Like(t, db, u3, lowPost)
	for i, u := range []*models.User{u1, u2, u3} {
		testutil.CreatePost(t, db, u, "high", testutil.At(10+i), testutil.WithSong(high))
	}

	ranked, err := repo.Trending(ctx, models.KindSong, 5)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, low.ID, ranked[0].ID)
	assert.Equal(t, int64(1), ranked[0].PostCount)
	assert.Equal(t, int64(2), ranked[0].LikeCount)
	assert.Equal(t, high.ID, ranked[1].ID)
	assert.Equal(t, int64(3), ranked[1].PostCount)
	assert.Zero(t, ranked[1].LikeCount)
	assert.Equal(t, ranked[0].PopularityScore, ranked[1].PopularityScore)

	top, err := repo.Trending(ctx, models.KindSong, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, low.ID, top[0].ID)
}

func TestFavoriteRepository_IdempotentAdd(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "u", "")
	first := testutil.CreateSong(t, db, "A", "X")
	second := testutil.CreateSong(t, db, "B", "X")

	added, err := repo.Add(ctx, u.ID, models.KindSong, first.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repo.Add(ctx, u.ID, models.KindSong, first.ID)
	require.NoError(t, err)
	assert.False(t, added)
	_, err = repo.Add(ctx, u.ID, models.KindSong, second.ID)
	require.NoError(t, err)

	var edges int64
	require.NoError(t, db.Model(&models.FavoriteSong{}).Count(&edges).Error)
	assert.Equal(t, int64(2), edges)

	entries, err := repo.List(ctx, u.ID, models.KindSong)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].Title)

	removed, err := repo.Remove(ctx, u.ID, models.KindSong, first.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Remove(ctx, u.ID, models.KindSong, first.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	all, err := repo.ListAll(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, all.Songs, 1)
	assert.NotNil(t, all.Albums)
	assert.Empty(t, all.Artists)
}
