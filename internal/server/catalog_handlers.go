package server

import (
	"resonate/internal/middleware"
	"resonate/internal/models"
	"resonate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFavorites handles GET /api/favorites/:kind
func (s *Server) GetFavorites(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	entries, err := s.favoriteService.ListFavorites(c.UserContext(), middleware.ViewerID(c), kind)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

// AddFavorite handles POST /api/favorites/:kind
// The body is either {"query": "..."} or the entity's identity fields. An
// unresolvable query answers 404 with found=false.
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	var req service.CatalogQuery
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := s.favoriteService.AddFavorite(c.UserContext(), middleware.ViewerID(c), kind, req)
	if err != nil {
		return err
	}
	switch {
	case !res.Found:
		return c.Status(fiber.StatusNotFound).JSON(res)
	case res.Added:
		return c.Status(fiber.StatusCreated).JSON(res)
	default:
		return c.JSON(res)
	}
}

// RemoveFavorite handles DELETE /api/favorites/:kind/:id
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	entityID, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.favoriteService.RemoveFavorite(c.UserContext(), middleware.ViewerID(c), kind, entityID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SearchCatalog handles GET /api/catalog/search?type=&q=
func (s *Server) SearchCatalog(c *fiber.Ctx) error {
	kind := models.CatalogKind(c.Query("type", string(models.KindSong)))
	entry, err := s.favoriteService.SearchCatalog(c.UserContext(), kind, c.Query("q"))
	if err != nil {
		return err
	}
	if entry == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"found": false})
	}
	return c.JSON(fiber.Map{"found": true, "item": entry})
}

// GetTrending handles GET /api/trending/:kind?limit=
func (s *Server) GetTrending(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	entries, err := s.discoveryService.Trending(c.UserContext(), kind, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(entries)
}
