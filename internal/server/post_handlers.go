package server

import (
	"resonate/internal/middleware"
	"resonate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed
// Authenticated viewers see their own and followed users' posts; anonymous viewers see everything.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, size := pageParams(c)
	feed, err := s.postService.GetFeed(c.UserContext(), middleware.ViewerID(c), page, size)
	if err != nil {
		return err
	}
	return c.JSON(feed)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c)
	if err != nil {
		return err
	}
	post, err := s.postService.GetPost(c.UserContext(), postID, middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content  string `json:"content"`
		SongID   *uint  `json:"song_id"`
		AlbumID  *uint  `json:"album_id"`
		ArtistID *uint  `json:"artist_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:   middleware.ViewerID(c),
		Content:  req.Content,
		SongID:   req.SongID,
		AlbumID:  req.AlbumID,
		ArtistID: req.ArtistID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := parseID(c)
	if err != nil {
		return err
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:  middleware.ViewerID(c),
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.postService.DeletePost(c.UserContext(), postID, middleware.ViewerID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := parseID(c)
	if err != nil {
		return err
	}
	res, err := s.postService.ToggleLike(c.UserContext(), postID, middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c)
	if err != nil {
		return err
	}
	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return err
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c)
	if err != nil {
		return err
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := s.commentService.AddComment(c.UserContext(), postID, middleware.ViewerID(c), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c)
	if err != nil {
		return err
	}
	postID, err := s.commentService.DeleteComment(c.UserContext(), commentID, middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Comment deleted successfully",
		"post_id": postID,
	})
}
