package server

import (
	"resonate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseID reads the :id route param as a positive uint.
func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid ID")
	}
	return uint(id), nil
}

// pageParams reads ?page= and ?page_size= (or ?limit=). Normalization happens in models.NewPageRequest.
func pageParams(c *fiber.Ctx) (page, size int) {
	page = c.QueryInt("page", 1)
	size = c.QueryInt("page_size", 0)
	if size == 0 {
		size = c.QueryInt("limit", 0)
	}
	return page, size
}

func kindParam(c *fiber.Ctx) (models.CatalogKind, error) {
	return models.ParseCatalogKind(c.Params("kind"))
}

// parseBody decodes the JSON body into dest.
func parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// targetID resolves the :username route param to a user id.
func (s *Server) targetID(c *fiber.Ctx) (uint, error) {
	return s.userService.ResolveUsername(c.UserContext(), c.Params("username"))
}
