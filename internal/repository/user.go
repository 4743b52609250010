package repository

import (
	"context"
	"errors"
	"strings"

	"resonate/internal/models"
	"resonate/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user and profile data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	UpdateEmail(ctx context.Context, userID uint, email string) error
	UpdateProfile(ctx context.Context, userID uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) ([]uint, error)
	Search(ctx context.Context, query string, excludeID uint, limit, offset int) ([]models.User, int64, error)
	ListByGenre(ctx context.Context, genre string, limit int) ([]models.User, error)
	MostFollowed(ctx context.Context, exclude []uint, limit int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user and its profile in one transaction.
// A duplicate username or email is reported as a conflict.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Profile.ProfilePicture == "" {
		user.Profile.ProfilePicture = models.DefaultProfilePicture
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no user has that username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Profile").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has that email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Profile").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByIDs loads users in ascending id order; unknown ids are skipped.
func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := readDB(r.db).WithContext(ctx).Preload("Profile").Where("id IN ?", ids).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) UpdateEmail(ctx context.Context, userID uint, email string) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("email", email).Error
	if isUniqueConstraintError(err) {
		return models.NewConflictError("Email already exists")
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateProfile applies column updates to the user's profile.
func (r *userRepository) UpdateProfile(ctx context.Context, userID uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", userID)
	}
	return nil
}

// Delete removes the user and everything it owns, including engagement
// other users left on its posts, in one transaction. It returns the ids of
// every post that was removed or lost a like or comment.
func (r *userRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var touched []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownPosts := tx.Model(&models.Post{}).Select("id").Where("user_id = ?", id)

		err := tx.Raw(`SELECT id FROM posts WHERE user_id = ?
			UNION SELECT post_id FROM likes WHERE user_id = ?
			UNION SELECT post_id FROM comments WHERE user_id = ?`, id, id, id).
			Scan(&touched).Error
		if err != nil {
			return err
		}

		steps := []struct {
			model interface{}
			query string
			args  []interface{}
		}{
			{&models.Like{}, "user_id = ? OR post_id IN (?)", []interface{}{id, ownPosts}},
			{&models.Comment{}, "user_id = ? OR post_id IN (?)", []interface{}{id, ownPosts}},
			{&models.Post{}, "user_id = ?", []interface{}{id}},
			{&models.Follow{}, "follower_id = ? OR followed_id = ?", []interface{}{id, id}},
			{&models.FavoriteSong{}, "user_id = ?", []interface{}{id}},
			{&models.FavoriteAlbum{}, "user_id = ?", []interface{}{id}},
			{&models.FavoriteArtist{}, "user_id = ?", []interface{}{id}},
			{&models.Profile{}, "user_id = ?", []interface{}{id}},
		}
		for _, s := range steps {
			if err := tx.Where(s.query, s.args...).Delete(s.model).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return touched, nil
}

// Search matches query as a case-insensitive substring of the username, excluding excludeID.
func (r *userRepository) Search(ctx context.Context, query string, excludeID uint, limit, offset int) ([]models.User, int64, error) {
	defer observability.TrackQuery("search", "users")()

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.User{}).Where(`LOWER(username) LIKE ? ESCAPE '\'`, pattern)
		if excludeID != 0 {
			db = db.Where("id <> ?", excludeID)
		}
		return db
	}

	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	users := []models.User{}
	if err := db.Scopes(scope).Preload("Profile").Order("username ASC").Order("id ASC").
		Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}

// ListByGenre returns up to limit users whose profile has the given favorite genre, by id.
func (r *userRepository) ListByGenre(ctx context.Context, genre string, limit int) ([]models.User, error) {
	users := []models.User{}
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("profiles.favorite_genre = ?", genre).
		Preload("Profile").
		Order("users.id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// MostFollowed ranks users with at least one follower by follower count (desc), then id (asc).
func (r *userRepository) MostFollowed(ctx context.Context, exclude []uint, limit int) ([]models.User, error) {
	defer observability.TrackQuery("most_followed", "follows")()

	db := readDB(r.db).WithContext(ctx)

	var ids []uint
	q := db.Model(&models.Follow{}).
		Select("followed_id").
		Group("followed_id").
		Order("COUNT(*) DESC").
		Order("followed_id ASC").
		Limit(limit)
	if len(exclude) > 0 {
		q = q.Where("followed_id NOT IN ?", exclude)
	}
	if err := q.Pluck("followed_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	users, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ranked := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ranked = append(ranked, u)
		}
	}
	return ranked, nil
}
