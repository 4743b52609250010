package repository

import (
	"context"

	"resonate/internal/models"
	"resonate/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post scan. At most one field is set; the zero value scans every post.
type PostFilter struct {
	// AuthorID restricts the scan to one author's posts.
	AuthorID uint
	// FeedOf restricts the scan to the user's own posts plus those of everyone it follows.
	FeedOf uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, int64, error)
	Enrich(ctx context.Context, posts []*models.Post, viewerID uint) error
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, postID, userID uint) (*models.LikeToggle, error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("User", "Song", "Album", "Artist").Create(post).Error; err != nil {
		return writeErr(err, "User", post.UserID)
	}
	return nil
}

// GetByID loads the post with its author and music attachment, and fills the
// viewer-independent counts. LikedByUser is left false.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := withPostDetails(r.db.WithContext(ctx)).First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	if err := r.Enrich(ctx, []*models.Post{&post}, 0); err != nil {
		return nil, err
	}
	return &post, nil
}

func withPostDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User.Profile").
		Preload("Song").
		Preload("Album").
		Preload("Artist")
}

// List returns one page of posts newest first, with ties on created_at broken by id,
// together with the total number of posts matching filter.
func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, int64, error) {
	defer observability.TrackQuery("list", "posts")()

	db := readDB(r.db).WithContext(ctx)
	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Model(&models.Post{})
		switch {
		case filter.AuthorID != 0:
			q = q.Where("posts.user_id = ?", filter.AuthorID)
		case filter.FeedOf != 0:
			followed := db.Model(&models.Follow{}).Select("followed_id").Where("follower_id = ?", filter.FeedOf)
			q = q.Where("(posts.user_id = ? OR posts.user_id IN (?))", filter.FeedOf, followed)
		}
		return q
	}

	var total int64
	if err := db.Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	posts := []*models.Post{}
	if total == 0 {
		return posts, 0, nil
	}
	if err := withPostDetails(db.Scopes(scope)).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

type postCount struct {
	PostID uint
	N      int64
}

// Enrich fills author, like and comment counts, and whether viewerID liked each post,
// with one query per aggregate for the whole batch.
func (r *postRepository) Enrich(ctx context.Context, posts []*models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}
	db := readDB(r.db).WithContext(ctx)

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		p.Author = models.AuthorOf(p.User)
	}

	likes, err := countByPost(db, &models.Like{}, ids)
	if err != nil {
		return err
	}
	comments, err := countByPost(db, &models.Comment{}, ids)
	if err != nil {
		return err
	}

	liked := map[uint]bool{}
	if viewerID != 0 {
		var likedIDs []uint
		if err := r.db.WithContext(ctx).Model(&models.Like{}).
			Where("user_id = ? AND post_id IN ?", viewerID, ids).
			Pluck("post_id", &likedIDs).Error; err != nil {
			return models.NewInternalError(err)
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	for _, p := range posts {
		p.LikesCount = likes[p.ID]
		p.CommentsCount = comments[p.ID]
		p.LikedByUser = liked[p.ID]
	}
	return nil
}

func countByPost(db *gorm.DB, model interface{}, ids []uint) (map[uint]int64, error) {
	var rows []postCount
	if err := db.Model(model).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.N
	}
	return counts, nil
}

func (r *postRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// Delete removes the post with its likes and comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "Post", id)
	}
	return nil
}

// ToggleLike removes the user's like when present and adds it otherwise,
// returning the resulting like count.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uint) (*models.LikeToggle, error) {
	result := &models.LikeToggle{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			result.Action = models.ActionUnliked
		} else {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Omit("User", "Post").
				Create(&models.Like{UserID: userID, PostID: postID}).Error; err != nil {
				return err
			}
			result.Action = models.ActionLiked
		}
		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&result.LikesCount).Error
	})
	if isForeignKeyError(err) {
		return nil, models.NewNotFoundError("User", userID)
	}
	if err != nil {
		return nil, notFoundOr(err, "Post", postID)
	}
	return result, nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
