// Package events publishes domain events to a broker after successful
// mutations. Consumers (push delivery, analytics) live outside this service.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Event types
const (
	PostCreated         = "post.created"
	PostDeleted         = "post.deleted"
	PostLiked           = "post.liked"
	CommentCreated      = "comment.created"
	UserFollowed        = "user.followed"
	FollowRequested     = "follow.requested"
	StoryCreated        = "story.created"
	NotificationCreated = "notification.created"
)

const publishTimeout = 5 * time.Second

// Event is the envelope written to every driver
type Event struct {
	Type        string         `json:"type"`
	AggregateID string         `json:"aggregate_id"`
	ActorID     uint           `json:"actor_id"`
	Data        map[string]any `json:"data,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// New builds an event stamped with the current time
func New(eventType, aggregateID string, actorID uint, data map[string]any) Event {
	return Event{
		Type:        eventType,
		AggregateID: aggregateID,
		ActorID:     actorID,
		Data:        data,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher delivers events to a broker
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Emit publishes ev with a bounded deadline. Failures are logged, never returned.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "event publish failed",
			"type", ev.Type,
			"aggregate_id", ev.AggregateID,
			"error", err,
		)
	}
}

func encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	return b, nil
}

// Config selects and configures a driver
type Config struct {
	Driver       string
	KafkaBrokers []string
	KafkaTopic   string
	NatsURL      string
}

// NewPublisher returns the publisher for cfg.Driver
func NewPublisher(cfg Config, logger *slog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	case "nats":
		return NewNatsPublisher(cfg.NatsURL)
	case "log", "":
		return NewLogPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
