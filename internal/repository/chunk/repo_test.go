package chunk

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/ragchat/internal/db"
	domchunk "github.com/kailas-cloud/ragchat/internal/domain/chunk"
)

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	var created *db.IndexDefinition
	ms := &mockStore{
		indexExistsFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		createIndexFn: func(_ context.Context, def *db.IndexDefinition) error {
			created = def
			return nil
		},
	}
	r := New(ms, 3, HNSWConfig{M: 16, EFConstruct: 200})

	if err := r.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected CreateIndex call")
	}
	if created.Name != "ragchat:chunks:idx" || created.Prefixes[0] != "ragchat:chunks:" {
		t.Errorf("unexpected index %s %v", created.Name, created.Prefixes)
	}
	vec := created.Fields[len(created.Fields)-1]
	if vec.VectorDim != 3 || vec.VectorDistance != db.DistanceCosine {
		t.Errorf("unexpected vector field %+v", vec)
	}
}

func TestEnsureIndex_SkipsExisting(t *testing.T) {
	ms := &mockStore{
		createIndexFn: func(_ context.Context, _ *db.IndexDefinition) error {
			t.Fatal("CreateIndex must not be called")
			return nil
		},
	}
	if err := New(ms, 3, HNSWConfig{}).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_RaceIsHarmless(t *testing.T) {
	ms := &mockStore{
		indexExistsFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		createIndexFn: func(_ context.Context, _ *db.IndexDefinition) error { return db.ErrIndexExists },
	}
	if err := New(ms, 3, HNSWConfig{}).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsertBatch(t *testing.T) {
	var got []db.HashSetItem
	ms := &mockStore{
		hsetMultiFn: func(_ context.Context, items []db.HashSetItem) error {
			got = items
			return nil
		},
	}
	r := New(ms, 2, HNSWConfig{})

	c0 := domchunk.Reconstruct("id-0", "policy.pdf", 0, "Refunds within 30 days.", []float32{1, 0})
	c1 := domchunk.Reconstruct("id-1", "policy.pdf", 1, "Contact sales.", []float32{0, 1})
	if err := r.UpsertBatch(context.Background(), []domchunk.Chunk{c0, c1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 items in one batch, got %d", len(got))
	}
	if got[1].Key != "ragchat:chunks:id-1" {
		t.Errorf("unexpected key %s", got[1].Key)
	}
	f := got[1].Fields
	if f["filename"] != "policy.pdf" || f["chunk_index"] != "1" || f["content"] != "Contact sales." {
		t.Errorf("unexpected fields %v", f)
	}
	if len(f["vector"]) != 8 {
		t.Errorf("expected 8-byte vector blob, got %d", len(f["vector"]))
	}
}

func TestUpsertBatch_DimensionMismatch(t *testing.T) {
	r := New(&mockStore{}, 3, HNSWConfig{})
	c := domchunk.Reconstruct("id", "a.pdf", 0, "x", []float32{1})
	if err := r.UpsertBatch(context.Background(), []domchunk.Chunk{c}); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestSearchKNN_OrdersByDistance(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			if q.K != 5 || q.IndexName != "ragchat:chunks:idx" {
				t.Errorf("unexpected query %+v", q)
			}
			return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
				{Key: "ragchat:chunks:b", Distance: 0.5, Fields: map[string]string{"content": "B", "chunk_index": "3"}},
				{Key: "ragchat:chunks:a", Distance: 0.1, Fields: map[string]string{"content": "A", "filename": "x.pdf"}},
			}}, nil
		},
	}

	got, err := New(ms, 2, HNSWConfig{}).SearchKNN(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID() != "a" || got[1].ID() != "b" {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[1].ChunkIndex() != 3 || got[0].Filename() != "x.pdf" {
		t.Errorf("metadata not mapped: %+v", got)
	}
}

func TestSearchKNN_Error(t *testing.T) {
	boom := errors.New("boom")
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) { return nil, boom },
	}
	if _, err := New(ms, 2, HNSWConfig{}).SearchKNN(context.Background(), []float32{1, 0}, 5); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestSearchKNN_MissingIndexIsEmpty(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
			return nil, db.ErrIndexNotFound
		},
	}
	got, err := New(ms, 2, HNSWConfig{}).SearchKNN(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no passages, got %d", len(got))
	}
}

func TestCount_MissingIndex(t *testing.T) {
	ms := &mockStore{
		indexExistsFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		searchCountFn: func(_ context.Context, _, _ string) (int, error) {
			t.Fatal("SearchCount must not be called")
			return 0, nil
		},
	}
	n, err := New(ms, 2, HNSWConfig{}).Count(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected 0, nil; got %d, %v", n, err)
	}
}

func TestReset(t *testing.T) {
	var deleted []string
	ms := &mockStore{
		dropIndexFn: func(_ context.Context, _ string) error { return db.ErrIndexNotFound },
		scanFn: func(_ context.Context, pattern string) ([]string, error) {
			if pattern != "ragchat:chunks:*" {
				t.Errorf("unexpected pattern %q", pattern)
			}
			return []string{"ragchat:chunks:a", "ragchat:chunks:b"}, nil
		},
		delFn: func(_ context.Context, key string) error {
			deleted = append(deleted, key)
			return nil
		},
	}

	n, err := New(ms, 2, HNSWConfig{}).Reset(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(deleted) != 2 {
		t.Errorf("expected 2 deletions, got n=%d deleted=%v", n, deleted)
	}
}
