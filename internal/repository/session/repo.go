// Package session keeps per-session conversation history in the KV store with a sliding TTL.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/db"
	"github.com/kailas-cloud/ragchat/internal/domain"
	"github.com/kailas-cloud/ragchat/internal/domain/conversation"
	"github.com/kailas-cloud/ragchat/internal/logger"
)

var keyPrefix = domain.KeyPrefix + "session:"

// store is the consumer interface for sessions (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type record struct {
	Turns []conversation.Turn `json:"turns"`
}

// Repo loads and saves histories.
type Repo struct {
	store    store
	ttl      time.Duration
	maxTurns int
	logger   *zap.Logger
}

// New creates a session repository. Every Save pushes expiry ttl into the future.
func New(s store, ttl time.Duration, maxTurns int, l *zap.Logger) *Repo {
	return &Repo{store: s, ttl: ttl, maxTurns: maxTurns, logger: l}
}

// Load returns the history of session id. An unknown, expired or unreadable session starts
// empty; the next Save overwrites an unreadable record.
func (r *Repo) Load(ctx context.Context, id string) (*conversation.History, error) {
	data, err := r.store.Get(ctx, key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return conversation.New(r.maxTurns), nil
		}
		return nil, fmt.Errorf("%w: load %s: %w", domain.ErrSessionStore, id, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		r.discard(ctx, id, err)
		return conversation.New(r.maxTurns), nil
	}
	h, err := conversation.Restore(r.maxTurns, rec.Turns)
	if err != nil {
		r.discard(ctx, id, err)
		return conversation.New(r.maxTurns), nil
	}
	return h, nil
}

// Save writes the history of session id and refreshes its TTL.
func (r *Repo) Save(ctx context.Context, id string, h *conversation.History) error {
	data, err := json.Marshal(record{Turns: h.Turns()})
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrSessionStore, id, err)
	}
	if err := r.store.SetWithTTL(ctx, key(id), data, r.ttl); err != nil {
		return fmt.Errorf("%w: save %s: %w", domain.ErrSessionStore, id, err)
	}
	return nil
}

func (r *Repo) discard(ctx context.Context, id string, err error) {
	logger.FromContextOr(ctx, r.logger).Warn("Discarding unreadable session history",
		zap.String("session_id", id), zap.Error(err))
}

func key(id string) string {
	return keyPrefix + id
}
