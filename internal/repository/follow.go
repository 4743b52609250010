package repository

import (
	"context"

	"resonate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow edge data operations
type FollowRepository interface {
	Create(ctx context.Context, followerID, followedID uint) (bool, error)
	Delete(ctx context.Context, followerID, followedID uint) (bool, error)
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	Toggle(ctx context.Context, followerID, followedID uint) (*models.FollowToggle, error)
	Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)
	Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)
	FollowerIDs(ctx context.Context, userID uint) ([]uint, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	FollowedAmong(ctx context.Context, followerID uint, candidates []uint) (map[uint]bool, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the edge unless it already exists. It reports whether a row was written.
func (r *followRepository) Create(ctx context.Context, followerID, followedID uint) (bool, error) {
	created, err := createFollow(r.db.WithContext(ctx), followerID, followedID)
	if err != nil {
		return false, writeErr(err, "User", followerID)
	}
	return created, nil
}

func createFollow(tx *gorm.DB, followerID, followedID uint) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Follower", "Followed").
		Create(&models.Follow{FollowerID: followerID, FollowedID: followedID})
	return res.RowsAffected > 0, res.Error
}

// Delete removes the edge. It reports whether one existed.
func (r *followRepository) Delete(ctx context.Context, followerID, followedID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Toggle removes the edge when present and creates it otherwise, then returns
// the followed user's follower count, all inside one transaction.
func (r *followRepository) Toggle(ctx context.Context, followerID, followedID uint) (*models.FollowToggle, error) {
	result := &models.FollowToggle{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			result.Action = models.ActionUnfollow
		} else {
			if _, err := createFollow(tx, followerID, followedID); err != nil {
				return err
			}
			result.Action = models.ActionFollow
		}
		return tx.Model(&models.Follow{}).Where("followed_id = ?", followedID).Count(&result.FollowersCount).Error
	})
	if err != nil {
		return nil, writeErr(err, "User", followerID)
	}
	return result, nil
}

// Followers lists the users following userID, most recent edge first.
func (r *followRepository) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return r.listEdges(ctx, "follows.follower_id", "follows.followed_id", userID, limit, offset)
}

// Following lists the users userID follows, most recent edge first.
func (r *followRepository) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return r.listEdges(ctx, "follows.followed_id", "follows.follower_id", userID, limit, offset)
}

func (r *followRepository) listEdges(ctx context.Context, joinCol, filterCol string, userID uint, limit, offset int) ([]models.User, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Follow{}).Where(filterCol+" = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	users := []models.User{}
	if err := db.Model(&models.User{}).
		Joins("JOIN follows ON "+joinCol+" = users.id").
		Where(filterCol+" = ?", userID).
		Preload("Profile").
		Order("follows.created_at DESC").
		Order("users.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}

func (r *followRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("followed_id = ?", userID).
		Order("follower_id ASC").
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("followed_id ASC").
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// FollowedAmong returns the subset of candidates that followerID follows.
func (r *followRepository) FollowedAmong(ctx context.Context, followerID uint, candidates []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if followerID == 0 || len(candidates) == 0 {
		return set, nil
	}
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id IN ?", followerID, candidates).
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("followed_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
