package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/labstack/echo/v4"
	svix "github.com/svix/svix-webhooks/go"
)

const (
	maxWebhookBodySize  = 1 << 20
	webhookDedupWindow  = 24 * time.Hour
	webhookProcessLimit = 5 * time.Second
)

// Deduper remembers delivery ids so replays are acknowledged without effect
type Deduper interface {
	FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, key string) error
}

// WebhookHandler mirrors identity provider user lifecycle events
type WebhookHandler struct {
	verifier *svix.Webhook
	users    *services.UserService
	accounts *services.AccountService
	dedup    Deduper
}

// NewWebhookHandler creates a handler verifying payloads with a whsec_ secret
func NewWebhookHandler(secret string, users *services.UserService, accounts *services.AccountService, dedup Deduper) (*WebhookHandler, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("webhook secret: %w", err)
	}
	return &WebhookHandler{verifier: wh, users: users, accounts: accounts, dedup: dedup}, nil
}

// RegisterWebhookRoutes registers the unauthenticated webhook endpoint
func (h *WebhookHandler) RegisterWebhookRoutes(e *echo.Echo) {
	e.POST("/webhooks/identity", h.Identity)
}

// Identity verifies, deduplicates and applies one identity event
func (h *WebhookHandler) Identity(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBodySize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable body")
	}
	if len(body) > maxWebhookBodySize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Payload too large")
	}
	if len(body) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Empty body")
	}

	deliveryID := req.Header.Get("svix-id")
	if deliveryID == "" || req.Header.Get("svix-timestamp") == "" || req.Header.Get("svix-signature") == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing svix headers")
	}
	if err := h.verifier.Verify(body, req.Header); err != nil {
		slog.WarnContext(req.Context(), "webhook signature rejected", "delivery_id", deliveryID, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid signature")
	}

	var event models.IdentityEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event payload")
	}

	ctx, cancel := context.WithTimeout(req.Context(), webhookProcessLimit)
	defer cancel()

	key := "webhook:" + deliveryID
	first, err := h.dedup.FirstSeen(ctx, key, webhookDedupWindow)
	if err != nil {
		// Without the dedup store every handler below is still idempotent.
		slog.WarnContext(ctx, "webhook dedup unavailable", "error", err)
		first = true
	}
	if !first {
		slog.DebugContext(ctx, "duplicate webhook delivery ignored", "delivery_id", deliveryID, "type", event.Type)
		return c.JSON(http.StatusOK, echo.Map{"success": true, "duplicate": true})
	}

	if err := h.apply(ctx, event); err != nil {
		if ferr := h.dedup.Forget(context.WithoutCancel(ctx), key); ferr != nil {
			slog.WarnContext(ctx, "webhook dedup key not released", "delivery_id", deliveryID, "error", ferr)
		}
		slog.ErrorContext(ctx, "webhook processing failed", "delivery_id", deliveryID, "type", event.Type, "error", err)
		return httpError(err)
	}

	slog.InfoContext(ctx, "webhook processed", "delivery_id", deliveryID, "type", event.Type)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *WebhookHandler) apply(ctx context.Context, event models.IdentityEvent) error {
	switch event.Type {
	case models.IdentityUserCreated:
		_, _, err := h.users.EnsureUser(ctx, profileFromEvent(event.Data))
		if errors.Is(err, services.ErrConflict) {
			// a redelivery cannot resolve an email owned by another identity
			slog.WarnContext(ctx, "identity not mirrored", "provider_uid", event.Data.ID, "error", err)
			return nil
		}
		return err
	case models.IdentityUserUpdated:
		_, err := h.users.RefreshIdentity(ctx, profileFromEvent(event.Data))
		return err
	case models.IdentityUserDeleted:
		return h.accounts.DeleteByProviderUID(ctx, event.Data.ID)
	default:
		slog.DebugContext(ctx, "webhook event type ignored", "type", event.Type)
		return nil
	}
}

func profileFromEvent(d models.IdentityUserData) models.IdentityProfile {
	p := models.IdentityProfile{
		ProviderUID: d.ID,
		FullName:    strings.TrimSpace(d.FirstName + " " + d.LastName),
		ImageURL:    d.ImageURL,
	}
	if len(d.EmailAddresses) > 0 {
		p.Email = d.EmailAddresses[0].EmailAddress
		p.EmailVerified = d.EmailAddresses[0].Verified()
	}
	return p
}
