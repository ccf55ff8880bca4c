package handlers

import (
	"net/http"

	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
}

// GetNotifications returns paginated notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	page := pageFrom(c)
	list, total, err := h.notifications.List(c.Request().Context(), currentUserID(c), page)
	if err != nil {
		return httpError(err)
	}
	return paginated(c, echo.Map{"notifications": list}, page, total)
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)
	grouped, err := h.notifications.Grouped(ctx, userID)
	if err != nil {
		return httpError(err)
	}
	unread, err := h.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"notifications": grouped, "unreadCount": unread})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	unread, err := h.notifications.UnreadCount(c.Request().Context(), currentUserID(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"unreadCount": unread})
}

func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Request().Context(), currentUserID(c), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	if err := h.notifications.MarkAllRead(c.Request().Context(), currentUserID(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "All notifications marked as read"})
}
