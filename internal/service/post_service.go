package service

import (
	"context"
	"strings"
	"time"

	"resonate/internal/cache"
	"resonate/internal/models"
	"resonate/internal/observability"
	"resonate/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxPostLen = 5000

type PostService struct {
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	catalogRepo repository.CatalogRepository
	pageSize    int
	postTTL     time.Duration
}

type CreatePostInput struct {
	UserID   uint
	Content  string
	SongID   *uint
	AlbumID  *uint
	ArtistID *uint
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Content string
}

// PostServiceOption tunes paging and caching.
type PostServiceOption func(*PostService)

// WithFeedPageSize sets the page size used when a request does not give one.
func WithFeedPageSize(n int) PostServiceOption {
	return func(s *PostService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPostCacheTTL enables caching of anonymous single-post reads.
func WithPostCacheTTL(ttl time.Duration) PostServiceOption {
	return func(s *PostService) { s.postTTL = ttl }
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	catalogRepo repository.CatalogRepository,
	opts ...PostServiceOption,
) *PostService {
	s := &PostService{
		postRepo:    postRepo,
		userRepo:    userRepo,
		catalogRepo: catalogRepo,
		pageSize:    models.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetFeed returns the viewer's feed: its own posts and those of the users it follows.
// Anonymous viewers see every post.
func (s *PostService) GetFeed(ctx context.Context, viewerID uint, page, pageSize int) (*models.Page[*models.Post], error) {
	ctx, end := observability.StartSpan(ctx, "feed.assemble",
		attribute.Int64("viewer.id", int64(viewerID)),
		attribute.Int("page", page),
	)
	res, err := s.listPosts(ctx, repository.PostFilter{FeedOf: viewerID}, viewerID, page, pageSize)
	end(err)
	return res, err
}

// GetUserPosts pages through one author's posts.
func (s *PostService) GetUserPosts(ctx context.Context, username string, viewerID uint, page, pageSize int) (*models.Page[*models.Post], error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return s.listPosts(ctx, repository.PostFilter{AuthorID: author.ID}, viewerID, page, pageSize)
}

func (s *PostService) listPosts(ctx context.Context, filter repository.PostFilter, viewerID uint, page, pageSize int) (*models.Page[*models.Post], error) {
	req := models.NewPageRequest(page, pageSize, s.pageSize)
	posts, total, err := s.postRepo.List(ctx, filter, req.PageSize, req.Offset())
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.Enrich(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return models.NewPage(posts, req, total), nil
}

// GetPost returns one enriched post. The viewer-independent part is served from
// the cache when enabled; LikedByUser is always computed fresh.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	var post *models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, s.postTTL, func() error {
		var fetchErr error
		post, fetchErr = s.postRepo.GetByID(ctx, id)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	post.LikedByUser = false
	if viewerID != 0 {
		liked, err := s.postRepo.IsLiked(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		post.LikedByUser = liked
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxPostLen {
		return nil, models.NewValidationError("Content too long (max 5000 characters)")
	}

	post := &models.Post{
		UserID:   in.UserID,
		Content:  content,
		SongID:   in.SongID,
		AlbumID:  in.AlbumID,
		ArtistID: in.ArtistID,
	}
	if post.MusicRefCount() > 1 {
		return nil, models.NewValidationError("A post can reference at most one of song, album or artist")
	}
	if err := s.checkMusicRef(ctx, post); err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID, in.UserID)
}

func (s *PostService) checkMusicRef(ctx context.Context, post *models.Post) error {
	refs := []struct {
		kind models.CatalogKind
		id   *uint
	}{
		{models.KindSong, post.SongID},
		{models.KindAlbum, post.AlbumID},
		{models.KindArtist, post.ArtistID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		ok, err := s.catalogRepo.Exists(ctx, ref.kind, *ref.id)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError(strings.ToUpper(string(ref.kind[:1]))+string(ref.kind[1:]), *ref.id)
		}
	}
	return nil
}

// UpdatePost edits the content of the caller's own post.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxPostLen {
		return nil, models.NewValidationError("Content too long (max 5000 characters)")
	}

	if err := s.postRepo.UpdateContent(ctx, in.PostID, content); err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, in.PostID)
	return s.GetPost(ctx, in.PostID, in.UserID)
}

// DeletePost removes the caller's own post with its likes and comments.
func (s *PostService) DeletePost(ctx context.Context, postID, requesterID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (*models.LikeToggle, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	res, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, postID)
	return res, nil
}
