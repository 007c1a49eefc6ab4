package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/db"
	"github.com/kailas-cloud/ragchat/internal/domain"
	"github.com/kailas-cloud/ragchat/internal/domain/conversation"
)

type mockStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestLoad_UnknownSessionIsEmpty(t *testing.T) {
	r := New(newMockStore(), time.Hour, 10, zap.NewNop())

	h, err := r.Load(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Len() != 0 || h.MaxTurns() != 10 {
		t.Errorf("expected empty history with window 10, got len=%d max=%d", h.Len(), h.MaxTurns())
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ms := newMockStore()
	r := New(ms, time.Hour, 10, zap.NewNop())
	ctx := context.Background()

	h := conversation.New(10)
	h.Append(conversation.UserTurn("What is your refund policy?"))
	h.Append(conversation.AssistantTurn("30 days."))
	if err := r.Save(ctx, "abc", h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.ttls["ragchat:session:abc"] != time.Hour {
		t.Errorf("expected TTL on save, got %v", ms.ttls)
	}

	got, err := r.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	turns := got.Turns()
	if len(turns) != 2 || turns[1].Role != conversation.RoleAssistant || turns[1].Content != "30 days." {
		t.Errorf("unexpected turns %+v", turns)
	}
}

func TestLoad_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.getErr = errors.New("down")

	_, err := New(ms, time.Hour, 10, zap.NewNop()).Load(context.Background(), "abc")
	if !errors.Is(err, domain.ErrSessionStore) {
		t.Fatalf("expected ErrSessionStore, got %v", err)
	}
}

func TestLoad_UnreadableRecordStartsEmpty(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{not json"},
		{"unknown role", `{"turns":[{"role":"system","content":"x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := newMockStore()
			ms.data["ragchat:session:abc"] = []byte(tt.data)
			r := New(ms, time.Hour, 10, zap.NewNop())
			ctx := context.Background()

			h, err := r.Load(ctx, "abc")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.Len() != 0 {
				t.Errorf("expected empty history, got %d turns", h.Len())
			}

			h.Append(conversation.UserTurn("hi"))
			if err := r.Save(ctx, "abc", h); err != nil {
				t.Fatal(err)
			}
			again, err := r.Load(ctx, "abc")
			if err != nil || again.Len() != 1 {
				t.Errorf("record must be usable after save: len=%d err=%v", again.Len(), err)
			}
		})
	}
}

func TestSave_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.setErr = errors.New("down")

	err := New(ms, time.Hour, 10, zap.NewNop()).Save(context.Background(), "abc", conversation.New(10))
	if !errors.Is(err, domain.ErrSessionStore) {
		t.Fatalf("expected ErrSessionStore, got %v", err)
	}
}
