package handlers

import (
	"net/http"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	users *services.UserService
	posts *services.PostService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService, posts *services.PostService) *UserHandler {
	return &UserHandler{users: users, posts: posts}
}

// RegisterUserRoutes registers user profile-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/me", h.Me)
	g.PUT("/me", h.UpdateProfile)
	g.GET("/users/search", h.Search)
	g.GET("/users/by-username/:username", h.GetByUsername)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// Me returns the authenticated user's profile
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.users.Me(c.Request().Context(), currentUserID(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, user)
}

// GetUser returns a profile with the caller's follow state
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	profile, err := h.users.Profile(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, profile)
}

func (h *UserHandler) GetByUsername(c echo.Context) error {
	profile, err := h.users.ProfileByUsername(c.Request().Context(), currentUserID(c), c.Param("username"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, profile)
}

// Search matches username or full name
func (h *UserHandler) Search(c echo.Context) error {
	users, err := h.users.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"users": users})
}

func (h *UserHandler) GetUserPosts(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	page := pageFrom(c)
	posts, total, err := h.posts.UserPosts(c.Request().Context(), currentUserID(c), id, page)
	if err != nil {
		return httpError(err)
	}
	return paginated(c, echo.Map{"posts": posts}, page, total)
}
