package server

import (
	"resonate/internal/middleware"
	"resonate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/users/:username
func (s *Server) GetProfile(c *fiber.Ctx) error {
	view, err := s.userService.GetProfile(c.UserContext(), c.Params("username"), middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// GetUserPosts handles GET /api/users/:username/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	page, size := pageParams(c)
	posts, err := s.postService.GetUserPosts(c.UserContext(), c.Params("username"), middleware.ViewerID(c), page, size)
	if err != nil {
		return err
	}
	return c.JSON(posts)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// DeleteMyAccount handles DELETE /api/users/me
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	if err := s.userService.DeleteAccount(c.UserContext(), middleware.ViewerID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SearchUsers handles GET /api/users/search?q=
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	page, size := pageParams(c)
	res, err := s.discoveryService.SearchUsers(c.UserContext(), c.Query("q"), middleware.ViewerID(c), page, size)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// GetSuggestedUsers handles GET /api/users/suggested
func (s *Server) GetSuggestedUsers(c *fiber.Ctx) error {
	users, err := s.discoveryService.SuggestedUsers(c.UserContext(), middleware.ViewerID(c), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// Follow handles POST /api/users/:username/follow
func (s *Server) Follow(c *fiber.Ctx) error {
	targetID, err := s.targetID(c)
	if err != nil {
		return err
	}
	created, err := s.followService.Follow(c.UserContext(), middleware.ViewerID(c), targetID)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"following": true, "created": created})
}

// Unfollow handles DELETE /api/users/:username/follow
func (s *Server) Unfollow(c *fiber.Ctx) error {
	targetID, err := s.targetID(c)
	if err != nil {
		return err
	}
	removed, err := s.followService.Unfollow(c.UserContext(), middleware.ViewerID(c), targetID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"following": false, "removed": removed})
}

// ToggleFollow handles POST /api/users/:username/follow/toggle
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	targetID, err := s.targetID(c)
	if err != nil {
		return err
	}
	res, err := s.followService.ToggleFollow(c.UserContext(), middleware.ViewerID(c), targetID)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// GetFollowers handles GET /api/users/:username/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	page, size := pageParams(c)
	res, err := s.followService.ListFollowers(c.UserContext(), c.Params("username"), middleware.ViewerID(c), page, size)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// GetFollowing handles GET /api/users/:username/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	page, size := pageParams(c)
	res, err := s.followService.ListFollowing(c.UserContext(), c.Params("username"), middleware.ViewerID(c), page, size)
	if err != nil {
		return err
	}
	return c.JSON(res)
}
