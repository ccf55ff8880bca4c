package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/anonto42/spotlight/backend/pkg/events"
	"github.com/anonto42/spotlight/backend/pkg/firebase"
	"github.com/anonto42/spotlight/backend/pkg/storage"
)

// Storage records removals and hands out deterministic URLs
type Storage struct {
	mu      sync.Mutex
	Removed []string
}

var _ storage.Storage = (*Storage)(nil)

func (s *Storage) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	return "https://storage.test/upload/" + key + "?sig=1", nil
}

func (s *Storage) URL(ctx context.Context, key string) (string, error) {
	return "https://storage.test/" + key, nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Removed = append(s.Removed, key)
	return nil
}

// RemovedKeys returns a copy of the removed keys
func (s *Storage) RemovedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Removed...)
}

// Publisher records published events
type Publisher struct {
	mu     sync.Mutex
	Events []events.Event
}

var _ events.Publisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, ev)
	return nil
}

func (p *Publisher) Close() error { return nil }

// Types returns the published event types in order
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, ev := range p.Events {
		out = append(out, ev.Type)
	}
	return out
}

// Verifier accepts the tokens present in its map
type Verifier map[string]firebase.Identity

var _ firebase.TokenVerifier = Verifier(nil)

func (v Verifier) VerifyIDToken(ctx context.Context, idToken string) (*firebase.Identity, error) {
	id, ok := v[idToken]
	if !ok {
		return nil, errors.New("token rejected")
	}
	return &id, nil
}
