package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anonto42/spotlight/backend/internal/middleware"
	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/anonto42/spotlight/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

// AuthHandler exchanges identity provider tokens for application sessions
type AuthHandler struct {
	users     *services.UserService
	verifier  firebase.TokenVerifier
	jwtSecret string
	jwtTTL    time.Duration
	now       func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users *services.UserService, verifier firebase.TokenVerifier, jwtSecret string, jwtTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		users:     users,
		verifier:  verifier,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		now:       time.Now,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/session", h.Session)
}

// Session verifies a Firebase ID token, mirrors the user on first sight and
// returns an application JWT
func (h *AuthHandler) Session(c echo.Context) error {
	var req models.SessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	identity, err := h.verifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		slog.WarnContext(ctx, "id token rejected", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
	}

	user, created, err := h.users.EnsureUser(ctx, models.IdentityProfile{
		ProviderUID:   identity.UID,
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
		FullName:      identity.Name,
		ImageURL:      identity.Picture,
	})
	if err != nil {
		return httpError(err)
	}
	if created {
		slog.InfoContext(ctx, "user created from session", "user_id", user.ID, "username", user.Username)
	}

	token, err := middleware.IssueToken(h.jwtSecret, user, h.jwtTTL, h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return success(c, status, echo.Map{"token": token, "user": user})
}
