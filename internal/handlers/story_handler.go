package handlers

import (
	"net/http"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	stories *services.StoryService
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(stories *services.StoryService) *StoryHandler {
	return &StoryHandler{stories: stories}
}

// RegisterStoryRoutes registers story routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.POST("/stories", h.CreateStory)
	g.GET("/stories", h.GetTray)
	g.GET("/stories/:id", h.GetStory)
	g.POST("/stories/:id/view", h.MarkViewed)
	g.GET("/stories/:id/metrics", h.GetMetrics)
	g.DELETE("/stories/:id", h.DeleteStory)
}

func (h *StoryHandler) CreateStory(c echo.Context) error {
	var req models.CreateStoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	story, err := h.stories.CreateStory(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, story)
}

// GetTray returns active stories grouped by author, unseen groups first
func (h *StoryHandler) GetTray(c echo.Context) error {
	tray, err := h.stories.Tray(c.Request().Context(), currentUserID(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, tray)
}

func (h *StoryHandler) GetStory(c echo.Context) error {
	story, err := h.stories.GetStory(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, story)
}

// MarkViewed records a view; repeated views are not counted again
func (h *StoryHandler) MarkViewed(c echo.Context) error {
	recorded, err := h.stories.MarkViewed(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"recorded": recorded})
}

func (h *StoryHandler) GetMetrics(c echo.Context) error {
	metrics, err := h.stories.Metrics(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, metrics)
}

func (h *StoryHandler) DeleteStory(c echo.Context) error {
	if err := h.stories.DeleteStory(c.Request().Context(), currentUserID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Story deleted"})
}
