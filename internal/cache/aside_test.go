package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"resonate/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_FetchesOnceThenServesFromRedis(t *testing.T) {
	mr := withMiniRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *[]models.TrendingEntry) func() error {
		return func() error {
			calls++
			*dest = []models.TrendingEntry{{CatalogEntry: models.CatalogEntry{ID: 1, Title: "S"}, PopularityScore: 8}}
			return nil
		}
	}

	var first []models.TrendingEntry
	require.NoError(t, Aside(ctx, TrendingKey(models.KindSong, 5), &first, time.Minute, fetch(&first)))
	assert.True(t, mr.Exists("trending:song:5"))

	var second []models.TrendingEntry
	require.NoError(t, Aside(ctx, TrendingKey(models.KindSong, 5), &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	require.Len(t, second, 1)
	assert.Equal(t, int64(8), second[0].PopularityScore)

	mr.FastForward(2 * time.Minute)
	var third []models.TrendingEntry
	require.NoError(t, Aside(ctx, TrendingKey(models.KindSong, 5), &third, time.Minute, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_PropagatesFetchErrorAndSkipsWrite(t *testing.T) {
	mr := withMiniRedis(t)
	boom := errors.New("db down")

	var dest []int
	err := Aside(context.Background(), PostKey(3), &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("post:3"))
}

func TestAside_WithoutRedisAlwaysFetches(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest int
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), PostKey(1), &dest, time.Minute, func() error {
			calls++
			dest = 7
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestInvalidatePost(t *testing.T) {
	mr := withMiniRedis(t)
	require.NoError(t, mr.Set("post:9", "{}"))

	InvalidatePost(context.Background(), 9)
	assert.False(t, mr.Exists("post:9"))
}
