package service

import (
	"context"
	"strings"
	"time"

	"resonate/internal/cache"
	"resonate/internal/models"
	"resonate/internal/repository"
)

const (
	defaultTrendingLimit   = 5
	maxTrendingLimit       = 50
	defaultSuggestionLimit = 5
	maxSuggestionLimit     = 20
	// genreScanLimit caps how many same-genre profiles are considered for suggestions.
	genreScanLimit = 5

	ReasonSimilarTaste = "similar taste"
	ReasonPopular      = "popular"
)

type DiscoveryService struct {
	catalogRepo repository.CatalogRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	trendingTTL time.Duration
}

func NewDiscoveryService(
	catalogRepo repository.CatalogRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	trendingTTL time.Duration,
) *DiscoveryService {
	return &DiscoveryService{
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		trendingTTL: trendingTTL,
	}
}

// Trending ranks catalog entities of kind by posts referencing them plus likes on those posts.
// Rankings are cached briefly; slightly stale counts are acceptable.
func (s *DiscoveryService) Trending(ctx context.Context, kind models.CatalogKind, limit int) ([]models.TrendingEntry, error) {
	kind, err := models.ParseCatalogKind(string(kind))
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTrendingLimit
	}
	if limit > maxTrendingLimit {
		limit = maxTrendingLimit
	}

	var entries []models.TrendingEntry
	err = cache.Aside(ctx, cache.TrendingKey(kind, limit), &entries, s.trendingTTL, func() error {
		var fetchErr error
		entries, fetchErr = s.catalogRepo.Trending(ctx, kind, limit)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.TrendingEntry{}
	}
	return entries, nil
}

// SuggestedUsers proposes users for viewerID to follow: first users sharing its
// favorite genre, then the most followed users.
func (s *DiscoveryService) SuggestedUsers(ctx context.Context, viewerID uint, limit int) ([]models.UserSummary, error) {
	if viewerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}

	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	skip := map[uint]bool{viewerID: true}
	for _, id := range following {
		skip[id] = true
	}

	suggested := make([]models.UserSummary, 0, limit)

	if genre := viewer.Profile.FavoriteGenre; genre != "" {
		candidates, err := s.userRepo.ListByGenre(ctx, genre, genreScanLimit)
		if err != nil {
			return nil, err
		}
		for _, u := range candidates {
			if skip[u.ID] || len(suggested) >= limit {
				continue
			}
			skip[u.ID] = true
			summary := models.SummaryOf(u)
			summary.Reason = ReasonSimilarTaste
			suggested = append(suggested, summary)
		}
	}

	if len(suggested) < limit {
		exclude := make([]uint, 0, len(skip))
		for id := range skip {
			exclude = append(exclude, id)
		}
		popular, err := s.userRepo.MostFollowed(ctx, exclude, limit-len(suggested))
		if err != nil {
			return nil, err
		}
		for _, u := range popular {
			summary := models.SummaryOf(u)
			summary.Reason = ReasonPopular
			suggested = append(suggested, summary)
		}
	}
	return suggested, nil
}

// SearchUsers finds users whose username contains query, case-insensitively.
// The viewer is never part of the results.
func (s *DiscoveryService) SearchUsers(ctx context.Context, query string, viewerID uint, page, pageSize int) (*models.Page[models.UserSummary], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}

	req := models.NewPageRequest(page, pageSize, models.DefaultPageSize)
	users, total, err := s.userRepo.Search(ctx, query, viewerID, req.PageSize, req.Offset())
	if err != nil {
		return nil, err
	}
	summaries, err := annotate(ctx, s.followRepo, users, viewerID)
	if err != nil {
		return nil, err
	}
	return models.NewPage(summaries, req, total), nil
}
