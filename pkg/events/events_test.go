package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(ctx context.Context, ev Event) error {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected a deadline")
	}
	return errors.New("broker unavailable")
}

func (f *failingPublisher) Close() error { return nil }

func TestEmitSwallowsErrors(t *testing.T) {
	p := &failingPublisher{}
	assert.NotPanics(t, func() {
		Emit(context.Background(), p, New(PostCreated, "abc", 1, nil))
	})
	assert.Equal(t, 1, p.calls)

	Emit(context.Background(), nil, New(PostCreated, "abc", 1, nil))
}

func TestEmitSurvivesCancelledRequest(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	Emit(ctx, p, New(UserFollowed, "2", 1, map[string]any{"target_id": 2}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, UserFollowed, line["type"])
	assert.Equal(t, "2", line["aggregate_id"])
}

func TestEncode(t *testing.T) {
	b, err := encode(New(PostLiked, "p1", 9, map[string]any{"likes": 3}))
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, PostLiked, decoded.Type)
	assert.Equal(t, uint(9), decoded.ActorID)
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestNewPublisherDrivers(t *testing.T) {
	p, err := NewPublisher(Config{Driver: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)

	p, err = NewPublisher(Config{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "t"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())

	_, err = NewPublisher(Config{Driver: "kafka"}, nil)
	assert.Error(t, err)

	_, err = NewPublisher(Config{Driver: "smoke-signals"}, nil)
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "spotlight.story.created", Subject(StoryCreated))
}
