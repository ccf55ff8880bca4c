package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follows and follow requests
type FollowHandler struct {
	graph *services.GraphService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.GraphService) *FollowHandler {
	return &FollowHandler{graph: graph}
}

// RegisterFollowRoutes registers follow and follow-request routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.ToggleFollow)
	g.GET("/users/:id/follow-status", h.GetFollowStatus)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)

	g.GET("/follow-requests", h.GetPendingRequests)
	g.POST("/follow-requests/:id/accept", h.AcceptRequest)
	g.POST("/follow-requests/:id/reject", h.RejectRequest)
	g.DELETE("/follow-requests/:id", h.CancelRequest)
}

// ToggleFollow follows, unfollows, requests or withdraws a request
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	targetID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	res, err := h.graph.ToggleFollow(c.Request().Context(), currentUserID(c), targetID)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, res)
}

func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	targetID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	status, err := h.graph.Status(c.Request().Context(), currentUserID(c), targetID)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, status)
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	users, err := h.graph.Followers(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"users": users})
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	users, err := h.graph.Following(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"users": users})
}

// GetPendingRequests lists requests addressed to the caller
func (h *FollowHandler) GetPendingRequests(c echo.Context) error {
	requests, err := h.graph.PendingRequests(c.Request().Context(), currentUserID(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"requests": requests})
}

func (h *FollowHandler) AcceptRequest(c echo.Context) error {
	return h.answer(c, h.graph.AcceptRequest, "Follow request accepted")
}

func (h *FollowHandler) RejectRequest(c echo.Context) error {
	return h.answer(c, h.graph.RejectRequest, "Follow request rejected")
}

// CancelRequest lets the requester withdraw a pending request
func (h *FollowHandler) CancelRequest(c echo.Context) error {
	return h.answer(c, h.graph.CancelRequest, "Follow request cancelled")
}

func (h *FollowHandler) answer(c echo.Context, op func(ctx context.Context, userID, requestID uint) error, message string) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := op(c.Request().Context(), currentUserID(c), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": message})
}
