// Package service holds the domain operations behind the HTTP handlers.
// Every operation takes the acting user explicitly; 0 means anonymous.
package service

import (
	"context"

	"resonate/internal/models"
	"resonate/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow adds the edge follower -> followed. It reports whether the edge is new.
func (s *FollowService) Follow(ctx context.Context, followerID, followedID uint) (bool, error) {
	if err := s.checkTarget(ctx, followerID, followedID); err != nil {
		return false, err
	}
	return s.followRepo.Create(ctx, followerID, followedID)
}

// Unfollow removes the edge. It reports whether one existed.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.followRepo.Delete(ctx, followerID, followedID)
}

// ToggleFollow flips the edge and returns the followed user's new follower count.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, followedID uint) (*models.FollowToggle, error) {
	if err := s.checkTarget(ctx, followerID, followedID); err != nil {
		return nil, err
	}
	return s.followRepo.Toggle(ctx, followerID, followedID)
}

func (s *FollowService) checkTarget(ctx context.Context, followerID, followedID uint) error {
	if followerID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	if followerID == followedID {
		return models.NewSelfFollowError()
	}
	_, err := s.userRepo.GetByID(ctx, followedID)
	return err
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	if followerID == 0 || followerID == followedID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, followerID, followedID)
}

func (s *FollowService) FollowersOf(ctx context.Context, userID uint) ([]uint, error) {
	return s.followRepo.FollowerIDs(ctx, userID)
}

func (s *FollowService) FollowingOf(ctx context.Context, userID uint) ([]uint, error) {
	return s.followRepo.FollowingIDs(ctx, userID)
}

// Counts returns how many users follow userID and how many it follows.
func (s *FollowService) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	if followers, err = s.followRepo.CountFollowers(ctx, userID); err != nil {
		return 0, 0, err
	}
	if following, err = s.followRepo.CountFollowing(ctx, userID); err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// ListFollowers pages through the users following username, annotated for viewerID.
func (s *FollowService) ListFollowers(ctx context.Context, username string, viewerID uint, page, pageSize int) (*models.Page[models.UserSummary], error) {
	return s.listEdges(ctx, username, viewerID, page, pageSize, s.followRepo.Followers)
}

// ListFollowing pages through the users username follows, annotated for viewerID.
func (s *FollowService) ListFollowing(ctx context.Context, username string, viewerID uint, page, pageSize int) (*models.Page[models.UserSummary], error) {
	return s.listEdges(ctx, username, viewerID, page, pageSize, s.followRepo.Following)
}

type edgeLister func(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)

func (s *FollowService) listEdges(ctx context.Context, username string, viewerID uint, page, pageSize int, list edgeLister) (*models.Page[models.UserSummary], error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	req := models.NewPageRequest(page, pageSize, models.DefaultPageSize)
	users, total, err := list(ctx, user.ID, req.PageSize, req.Offset())
	if err != nil {
		return nil, err
	}
	summaries, err := annotate(ctx, s.followRepo, users, viewerID)
	if err != nil {
		return nil, err
	}
	return models.NewPage(summaries, req, total), nil
}

// annotate builds summaries for users and marks the ones viewerID follows.
func annotate(ctx context.Context, followRepo repository.FollowRepository, users []models.User, viewerID uint) ([]models.UserSummary, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	followed, err := followRepo.FollowedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.UserSummary, len(users))
	for i, u := range users {
		summaries[i] = models.SummaryOf(u)
		summaries[i].IsFollowing = followed[u.ID]
	}
	return summaries, nil
}
