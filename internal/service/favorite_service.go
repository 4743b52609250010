package service

import (
	"context"
	"log/slog"
	"strings"

	"resonate/internal/catalog"
	"resonate/internal/middleware"
	"resonate/internal/models"
	"resonate/internal/repository"
)

// CatalogQuery identifies a catalog entity either by free text (Query) or by
// identity fields. A query with identity and a Spotify URL is a complete payload
// and is stored as given without asking the external catalog.
type CatalogQuery struct {
	Query       string `json:"query"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Name        string `json:"name"`
	CoverURL    string `json:"cover_url"`
	SpotifyURL  string `json:"spotify_url"`
	EmbedURL    string `json:"embed_url"`
	ReleaseDate string `json:"release_date"`
	Genres      string `json:"genres"`
}

func (q CatalogQuery) hasIdentity(kind models.CatalogKind) bool {
	if kind == models.KindArtist {
		return strings.TrimSpace(q.Name) != ""
	}
	return strings.TrimSpace(q.Title) != "" && strings.TrimSpace(q.Artist) != ""
}

// searchText is the free text sent to the external catalog.
func (q CatalogQuery) searchText(kind models.CatalogKind) string {
	if t := strings.TrimSpace(q.Query); t != "" {
		return t
	}
	if kind == models.KindArtist {
		return strings.TrimSpace(q.Name)
	}
	return strings.TrimSpace(strings.TrimSpace(q.Title) + " " + strings.TrimSpace(q.Artist))
}

// FavoriteResult reports the outcome of AddFavorite.
type FavoriteResult struct {
	Found bool                 `json:"found"`
	Added bool                 `json:"added"`
	Entry *models.CatalogEntry `json:"item,omitempty"`
}

type FavoriteService struct {
	catalogRepo  repository.CatalogRepository
	favoriteRepo repository.FavoriteRepository
	lookup       catalog.Lookup
}

func NewFavoriteService(catalogRepo repository.CatalogRepository, favoriteRepo repository.FavoriteRepository, lookup catalog.Lookup) *FavoriteService {
	if lookup == nil {
		lookup = catalog.Disabled{}
	}
	return &FavoriteService{catalogRepo: catalogRepo, favoriteRepo: favoriteRepo, lookup: lookup}
}

// AddFavorite resolves q to a stored catalog entity and links it to the user.
// An unresolvable query yields Found=false and no error.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID uint, kind models.CatalogKind, q CatalogQuery) (*FavoriteResult, error) {
	kind, err := models.ParseCatalogKind(string(kind))
	if err != nil {
		return nil, err
	}
	entry, err := s.resolve(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &FavoriteResult{Found: false}, nil
	}
	added, err := s.favoriteRepo.Add(ctx, userID, kind, entry.ID)
	if err != nil {
		return nil, err
	}
	return &FavoriteResult{Found: true, Added: added, Entry: entry}, nil
}

func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID uint, kind models.CatalogKind, entityID uint) error {
	kind, err := models.ParseCatalogKind(string(kind))
	if err != nil {
		return err
	}
	removed, err := s.favoriteRepo.Remove(ctx, userID, kind, entityID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("Favorite "+string(kind), entityID)
	}
	return nil
}

func (s *FavoriteService) ListFavorites(ctx context.Context, userID uint, kind models.CatalogKind) ([]models.CatalogEntry, error) {
	kind, err := models.ParseCatalogKind(string(kind))
	if err != nil {
		return nil, err
	}
	return s.favoriteRepo.List(ctx, userID, kind)
}

// SearchCatalog resolves free text to a stored catalog entity, creating it from the
// external catalog on first sight. It returns nil when nothing matches.
func (s *FavoriteService) SearchCatalog(ctx context.Context, kind models.CatalogKind, query string) (*models.CatalogEntry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.resolve(ctx, kind, CatalogQuery{Query: query})
}

// resolve is lookup-or-create: stored identity first, then a complete payload,
// then the external catalog.
func (s *FavoriteService) resolve(ctx context.Context, kind models.CatalogKind, q CatalogQuery) (*models.CatalogEntry, error) {
	kind, err := models.ParseCatalogKind(string(kind))
	if err != nil {
		return nil, err
	}

	if q.hasIdentity(kind) {
		entry, err := s.findStored(ctx, kind, q)
		if err != nil || entry != nil {
			return entry, err
		}
		if q.SpotifyURL != "" {
			return s.store(ctx, kind, fromQuery(kind, q))
		}
	}

	text := q.searchText(kind)
	if text == "" {
		return nil, models.NewValidationError("A search query or " + identityFields(kind) + " is required")
	}

	res, err := s.lookup.Lookup(ctx, text, kind)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Catalog lookup failed",
			slog.String("kind", string(kind)),
			slog.String("query", text),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}
	if res == nil {
		return nil, nil
	}
	return s.store(ctx, kind, res)
}

func identityFields(kind models.CatalogKind) string {
	if kind == models.KindArtist {
		return "name"
	}
	return "title and artist"
}

func (s *FavoriteService) findStored(ctx context.Context, kind models.CatalogKind, q CatalogQuery) (*models.CatalogEntry, error) {
	switch kind {
	case models.KindSong:
		song, err := s.catalogRepo.FindSong(ctx, q.Title, q.Artist)
		if err != nil || song == nil {
			return nil, err
		}
		e := song.Entry()
		return &e, nil
	case models.KindAlbum:
		album, err := s.catalogRepo.FindAlbum(ctx, q.Title, q.Artist)
		if err != nil || album == nil {
			return nil, err
		}
		e := album.Entry()
		return &e, nil
	default:
		artist, err := s.catalogRepo.FindArtist(ctx, q.Name)
		if err != nil || artist == nil {
			return nil, err
		}
		e := artist.Entry()
		return &e, nil
	}
}

func fromQuery(kind models.CatalogKind, q CatalogQuery) *catalog.Result {
	res := &catalog.Result{
		Kind:        kind,
		Title:       strings.TrimSpace(q.Title),
		Artist:      strings.TrimSpace(q.Artist),
		Album:       q.Album,
		Name:        strings.TrimSpace(q.Name),
		CoverURL:    q.CoverURL,
		SpotifyURL:  q.SpotifyURL,
		EmbedURL:    q.EmbedURL,
		ReleaseDate: q.ReleaseDate,
	}
	if q.Genres != "" {
		res.Genres = strings.Split(q.Genres, ", ")
	}
	return res
}

func (s *FavoriteService) store(ctx context.Context, kind models.CatalogKind, res *catalog.Result) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	switch kind {
	case models.KindSong:
		song, err := s.catalogRepo.UpsertSong(ctx, res.Song())
		if err != nil {
			return nil, err
		}
		entry = song.Entry()
	case models.KindAlbum:
		album, err := s.catalogRepo.UpsertAlbum(ctx, res.AlbumModel())
		if err != nil {
			return nil, err
		}
		entry = album.Entry()
	default:
		artist, err := s.catalogRepo.UpsertArtist(ctx, res.ArtistModel())
		if err != nil {
			return nil, err
		}
		entry = artist.Entry()
	}
	return &entry, nil
}
