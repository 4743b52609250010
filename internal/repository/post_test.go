package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"resonate/internal/models"
	"resonate/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{UserID: 3, Content: "Now spinning"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_DeleteMissingIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE post_id = $1`)).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "comments" WHERE post_id = $1`)).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "posts" WHERE "posts"."id" = $1`)).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 42)
	assert.True(t, models.HasCode(err, models.CodeNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_FeedPagination(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	self := testutil.CreateUser(t, db, "self", "")
	b := testutil.CreateUser(t, db, "b", "")
	c := testutil.CreateUser(t, db, "c", "")
	stranger := testutil.CreateUser(t, db, "stranger", "")
	testutil.Follow(t, db, self, b)
	testutil.Follow(t, db, self, c)

	p1 := testutil.CreatePost(t, db, b, "P1", testutil.At(1))
	p2 := testutil.CreatePost(t, db, c, "P2", testutil.At(2))
	p3 := testutil.CreatePost(t, db, self, "P3", testutil.At(3))
	testutil.CreatePost(t, db, stranger, "not in feed", testutil.At(4))

	filter := PostFilter{FeedOf: self.ID}

	posts, total, err := repo.List(ctx, filter, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, posts, 2)
	assert.Equal(t, []uint{p3.ID, p2.ID}, []uint{posts[0].ID, posts[1].ID})

	posts, _, err = repo.List(ctx, filter, 2, 2)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, p1.ID, posts[0].ID)

	all, total, err := repo.List(ctx, PostFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)

	mine, total, err := repo.List(ctx, PostFilter{AuthorID: b.ID}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, p1.ID, mine[0].ID)
}

func TestPostRepository_OrderingTieBreaksByID(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)

	u := testutil.CreateUser(t, db, "u", "")
	first := testutil.CreatePost(t, db, u, "first", testutil.At(1))
	second := testutil.CreatePost(t, db, u, "second", testutil.At(1))

	posts, _, err := repo.List(context.Background(), PostFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
}

func TestPostRepository_Enrich(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author", "")
	fan := testutil.CreateUser(t, db, "fan", "")
	song := testutil.CreateSong(t, db, "Blue in Green", "Miles Davis")
	post := testutil.CreatePost(t, db, author, "listen", testutil.At(1), testutil.WithSong(song))
	quiet := testutil.CreatePost(t, db, author, "quiet", testutil.At(2))
	testutil.Like(t, db, fan, post)
	testutil.Like(t, db, author, post)
	testutil.CreateComment(t, db, fan, post, "great")

	posts, _, err := repo.List(ctx, PostFilter{AuthorID: author.ID}, 10, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Enrich(ctx, posts, fan.ID))

	require.Len(t, posts, 2)
	assert.Equal(t, quiet.ID, posts[0].ID)
	assert.Zero(t, posts[0].LikesCount)
	assert.False(t, posts[0].LikedByUser)

	got := posts[1]
	assert.Equal(t, int64(2), got.LikesCount)
	assert.Equal(t, int64(1), got.CommentsCount)
	assert.True(t, got.LikedByUser)
	assert.Equal(t, "author", got.Author.Username)
	assert.Equal(t, models.DefaultProfilePicture, got.Author.ProfilePicture)
	require.NotNil(t, got.Song)
	assert.Equal(t, "Blue in Green", got.Song.Title)

	anon, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, anon.LikedByUser)
	assert.Equal(t, int64(2), anon.LikesCount)
}

func TestPostRepository_ToggleLikeIsInvolution(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "u", "")
	other := testutil.CreateUser(t, db, "other", "")
	post := testutil.CreatePost(t, db, u, "x", testutil.At(1))
	testutil.Like(t, db, other, post)

	res, err := repo.ToggleLike(ctx, post.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LikeToggle{Action: models.ActionLiked, LikesCount: 2}, *res)

	res, err = repo.ToggleLike(ctx, post.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LikeToggle{Action: models.ActionUnliked, LikesCount: 1}, *res)

	liked, err := repo.IsLiked(ctx, u.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = repo.ToggleLike(ctx, 9999, u.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_DeleteCascadesToEngagement(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "u", "")
	fan := testutil.CreateUser(t, db, "fan", "")
	doomed := testutil.CreatePost(t, db, u, "doomed", testutil.At(1))
	kept := testutil.CreatePost(t, db, u, "kept", testutil.At(2))
	testutil.Like(t, db, fan, doomed)
	testutil.Like(t, db, fan, kept)
	testutil.CreateComment(t, db, fan, doomed, "a")
	c := testutil.CreateComment(t, db, fan, kept, "b")
	testutil.CreateComment(t, db, u, kept, "c")

	require.NoError(t, posts.Delete(ctx, doomed.ID))

	var likes, left int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", doomed.ID).Count(&likes).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", doomed.ID).Count(&left).Error)
	assert.Zero(t, likes)
	assert.Zero(t, left)

	require.NoError(t, comments.Delete(ctx, c.ID))
	remaining, err := comments.ListByPost(ctx, kept.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "c", remaining[0].Content)
	assert.Equal(t, "u", remaining[0].Author.Username)

	stillLiked, err := posts.IsLiked(ctx, fan.ID, kept.ID)
	require.NoError(t, err)
	assert.True(t, stillLiked)
}

func TestPostRepository_Create_MissingAuthorIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "insert or update on table \"posts\" violates foreign key constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Post{UserID: 42, Content: "orphan"})
	assert.True(t, models.HasCode(err, models.CodeNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"postgres foreign key", &pgconn.PgError{Code: "23503"}, models.CodeNotFound},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), models.CodeNotFound},
		{"anything else", errors.New("connection reset"), models.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, models.HasCode(writeErr(tt.err, "User", 7), tt.want))
		})
	}
}
