package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/anonto42/spotlight/backend/pkg/events"
)

// NotificationService creates notifications and serves the caller's inbox
type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	posts         repositories.PostRepository
	comments      repositories.CommentRepository
	publisher     events.Publisher
	now           func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notifications repositories.NotificationRepository,
	users repositories.UserRepository,
	posts repositories.PostRepository,
	comments repositories.CommentRepository,
	publisher events.Publisher,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		posts:         posts,
		comments:      comments,
		publisher:     publisher,
		now:           time.Now,
	}
}

// Notify stores n unless it is addressed to its own sender, then hands it to
// the push transport through the event publisher
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.ReceiverID == 0 || n.ReceiverID == n.SenderID {
		return nil
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("create %s notification: %w", n.Type, err)
	}
	events.Emit(ctx, s.publisher, events.New(events.NotificationCreated, strconv.FormatUint(uint64(n.ID), 10), n.SenderID, map[string]any{
		"receiver_id": n.ReceiverID,
		"type":        n.Type,
		"post_id":     n.PostID,
	}))
	return nil
}

// notifyBestEffort logs instead of failing the mutation that triggered it
func (s *NotificationService) notifyBestEffort(ctx context.Context, n *models.Notification) {
	if err := s.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "notification not created", "type", n.Type, "receiver_id", n.ReceiverID, "error", err)
	}
}

// List returns the receiver's notifications newest first
func (s *NotificationService) List(ctx context.Context, receiverID uint, page Page) ([]models.NotificationView, int64, error) {
	list, total, err := s.notifications.GetByReceiverID(ctx, receiverID, page.Page, page.Limit)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.hydrate(ctx, list)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Grouped buckets the receiver's notifications into today, yesterday, this week and older
func (s *NotificationService) Grouped(ctx context.Context, receiverID uint) (*models.GroupedNotifications, error) {
	today, yesterday, thisWeek, older, err := s.notifications.GetGrouped(ctx, receiverID, s.now())
	if err != nil {
		return nil, err
	}
	all := make([]models.Notification, 0, len(today)+len(yesterday)+len(thisWeek)+len(older))
	all = append(all, today...)
	all = append(all, yesterday...)
	all = append(all, thisWeek...)
	all = append(all, older...)

	views, err := s.hydrate(ctx, all)
	if err != nil {
		return nil, err
	}

	out := &models.GroupedNotifications{}
	i := 0
	take := func(n int) []models.NotificationView {
		part := views[i : i+n]
		i += n
		return part
	}
	out.Today = take(len(today))
	out.Yesterday = take(len(yesterday))
	out.ThisWeek = take(len(thisWeek))
	out.Older = take(len(older))
	return out, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	return s.notifications.GetUnreadCount(ctx, receiverID)
}

// MarkRead marks one notification read; only its receiver may do so
func (s *NotificationService) MarkRead(ctx context.Context, receiverID, notificationID uint) error {
	return notFoundAs(s.notifications.MarkAsRead(ctx, notificationID, receiverID), "notification")
}

func (s *NotificationService) MarkAllRead(ctx context.Context, receiverID uint) error {
	return s.notifications.MarkAllAsRead(ctx, receiverID)
}

// hydrate attaches sender, post preview and comment text with one lookup per kind
func (s *NotificationService) hydrate(ctx context.Context, list []models.Notification) ([]models.NotificationView, error) {
	if len(list) == 0 {
		return []models.NotificationView{}, nil
	}

	senderIDs := make([]uint, 0, len(list))
	postIDs := make([]string, 0, len(list))
	commentIDs := make([]uint, 0, len(list))
	for _, n := range list {
		senderIDs = append(senderIDs, n.SenderID)
		if n.PostID != "" {
			postIDs = append(postIDs, n.PostID)
		}
		if n.CommentID != nil {
			commentIDs = append(commentIDs, *n.CommentID)
		}
	}

	senders, err := s.users.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.GetPostsByIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.GetCommentsByIDs(ctx, commentIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.NotificationView, 0, len(list))
	for _, n := range list {
		v := models.NotificationView{Notification: n}
		if u, ok := senders[n.SenderID]; ok {
			v.Sender = u.ToCompact()
		}
		if p, ok := posts[n.PostID]; ok {
			v.PostImageURL = p.ImageURL
		}
		if n.CommentID != nil {
			if c, ok := comments[*n.CommentID]; ok {
				v.Comment = c.Content
			}
		}
		views = append(views, v)
	}
	return views, nil
}
