package handlers

import (
	"net/http"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// EngagementHandler handles likes, comments and bookmarks on posts
type EngagementHandler struct {
	engagement *services.EngagementService
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(engagement *services.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagement: engagement}
}

// RegisterEngagementRoutes registers like, comment and bookmark routes
func (h *EngagementHandler) RegisterEngagementRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.ToggleLike)
	g.GET("/posts/:id/comments", h.GetComments)
	g.POST("/posts/:id/comments", h.CreateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
	g.POST("/posts/:id/bookmark", h.ToggleBookmark)
}

// ToggleLike likes or unlikes a post
func (h *EngagementHandler) ToggleLike(c echo.Context) error {
	res, err := h.engagement.ToggleLike(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, res)
}

func (h *EngagementHandler) GetComments(c echo.Context) error {
	comments, err := h.engagement.ListComments(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"comments": comments})
}

func (h *EngagementHandler) CreateComment(c echo.Context) error {
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	comment, err := h.engagement.AddComment(c.Request().Context(), currentUserID(c), c.Param("id"), req.Content)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, comment)
}

// DeleteComment is allowed to the comment author and the post owner
func (h *EngagementHandler) DeleteComment(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.engagement.DeleteComment(c.Request().Context(), currentUserID(c), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Comment deleted"})
}

func (h *EngagementHandler) ToggleBookmark(c echo.Context) error {
	bookmarked, err := h.engagement.ToggleBookmark(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"bookmarked": bookmarked})
}
