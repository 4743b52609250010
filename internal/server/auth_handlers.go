package server

import (
	"log/slog"

	"resonate/internal/middleware"
	"resonate/internal/models"
	"resonate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	token, err := s.auth.IssueToken(user.ID, user.Username)
	if err != nil {
		return models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "user registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("username", user.Username),
	)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	token, err := s.auth.IssueToken(user.ID, user.Username)
	if err != nil {
		return models.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}
