package service

import (
	"context"
	"errors"
	"testing"

	"resonate/internal/catalog"
	"resonate/internal/models"
	"resonate/internal/repository"
	"resonate/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// services wires every service onto one in-memory database.
type services struct {
	db        *gorm.DB
	users     *UserService
	follows   *FollowService
	posts     *PostService
	comments  *CommentService
	favorites *FavoriteService
	discovery *DiscoveryService
	lookup    *lookupStub
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	lookup := &lookupStub{}

	return &services{
		db:        db,
		users:     NewUserService(userRepo, followRepo, favoriteRepo),
		follows:   NewFollowService(followRepo, userRepo),
		posts:     NewPostService(postRepo, userRepo, catalogRepo),
		comments:  NewCommentService(commentRepo, postRepo),
		favorites: NewFavoriteService(catalogRepo, favoriteRepo, lookup),
		discovery: NewDiscoveryService(catalogRepo, userRepo, followRepo, 0),
		lookup:    lookup,
	}
}

// lookupStub is a stub for catalog.Lookup that records its queries.
type lookupStub struct {
	fn      func(context.Context, string, models.CatalogKind) (*catalog.Result, error)
	queries []string
}

func (s *lookupStub) Lookup(ctx context.Context, query string, kind models.CatalogKind) (*catalog.Result, error) {
	s.queries = append(s.queries, query)
	if s.fn == nil {
		return nil, nil
	}
	return s.fn(ctx, query, kind)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }
