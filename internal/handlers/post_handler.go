package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles posts, the feed, bookmarks and upload URLs
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/uploads", h.CreateUpload)
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/feed", h.GetFeed)
	g.GET("/bookmarks", h.GetBookmarks)
}

// CreateUpload returns a signed URL the client uploads media to
func (h *PostHandler) CreateUpload(c echo.Context) error {
	var req models.UploadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	upload, err := h.posts.CreateUpload(c.Request().Context(), currentUserID(c), req.ContentType)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, upload)
}

// CreatePost publishes an uploaded image as a post
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	post, err := h.posts.CreatePost(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, post)
}

func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.posts.GetPost(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, post)
}

// DeletePost deletes the caller's post and everything attached to it
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.posts.DeletePost(c.Request().Context(), currentUserID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Post deleted"})
}

// GetFeed returns posts newest first. following=true narrows it to followed
// accounts and the caller.
func (h *PostHandler) GetFeed(c echo.Context) error {
	followingOnly, _ := strconv.ParseBool(c.QueryParam("following"))
	page := pageFrom(c)
	posts, total, err := h.posts.Feed(c.Request().Context(), currentUserID(c), page, followingOnly)
	if err != nil {
		return httpError(err)
	}
	return paginated(c, echo.Map{"posts": posts}, page, total)
}

func (h *PostHandler) GetBookmarks(c echo.Context) error {
	page := pageFrom(c)
	posts, total, err := h.posts.Bookmarks(c.Request().Context(), currentUserID(c), page)
	if err != nil {
		return httpError(err)
	}
	return paginated(c, echo.Map{"posts": posts}, page, total)
}
