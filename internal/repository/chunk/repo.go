// Package chunk persists document chunks as vector-indexed hashes.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/ragchat/internal/db"
	"github.com/kailas-cloud/ragchat/internal/domain"
	domchunk "github.com/kailas-cloud/ragchat/internal/domain/chunk"
	"github.com/kailas-cloud/ragchat/internal/domain/retrieval"
)

// Hash field names.
const (
	fieldContent    = "content"
	fieldFilename   = "filename"
	fieldChunkIndex = "chunk_index"
	fieldVector     = "vector"
)

// store is the consumer interface for chunks (ISP).
//
//nolint:interfacebloat // repo owns both the index lifecycle and the documents under it
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig holds HNSW build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the chunk collection on top of db.Store.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a chunk repository for vectors of vectorDim dimensions.
func New(s store, vectorDim int, hnsw HNSWConfig) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, hnsw: hnsw}
}

// IndexName is the fixed FT index over the chunk collection.
func IndexName() string {
	return prefix() + "idx"
}

func prefix() string {
	return domain.KeyPrefix + domain.ChunkCollection + ":"
}

func chunkKey(id string) string {
	return prefix() + id
}

// EnsureIndex creates the vector index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(IndexName()).
		Prefix(prefix()).
		Text(fieldContent).
		Tag(fieldFilename).
		Numeric(fieldChunkIndex).
		VectorHNSW(fieldVector, r.vectorDim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	// concurrent ingesters may race here
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// UpsertBatch writes all chunks in one pipelined round-trip. Every chunk must carry a vector
// of the configured dimension.
func (r *Repo) UpsertBatch(ctx context.Context, chunks []domchunk.Chunk) error {
	items := make([]db.HashSetItem, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Vector()) != r.vectorDim {
			return fmt.Errorf("chunk %s: vector has %d dims, want %d", c.ID(), len(c.Vector()), r.vectorDim)
		}
		items = append(items, db.HashSetItem{
			Key: chunkKey(c.ID()),
			Fields: map[string]string{
				fieldContent:    c.Text(),
				fieldFilename:   c.Filename(),
				fieldChunkIndex: strconv.Itoa(c.Index()),
				fieldVector:     db.EncodeVector(c.Vector()),
			},
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d chunks: %w", len(items), err)
	}
	return nil
}

// SearchKNN returns up to k passages ordered by ascending cosine distance.
// A missing index (nothing ingested yet, or just reset) is an empty collection.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]retrieval.Passage, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName(),
		VectorField:  fieldVector,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldContent, fieldFilename, fieldChunkIndex},
	})
	if errors.Is(err, db.ErrIndexNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	passages := make([]retrieval.Passage, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		idx, _ := strconv.Atoi(e.Fields[fieldChunkIndex])
		passages = append(passages, retrieval.NewPassage(
			strings.TrimPrefix(e.Key, prefix()),
			e.Fields[fieldContent],
			e.Distance,
			e.Fields[fieldFilename],
			idx,
		))
	}
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Distance() < passages[j].Distance()
	})
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}

// Count returns the number of indexed chunks. A missing index counts as zero.
func (r *Repo) Count(ctx context.Context) (int, error) {
	exists, err := r.store.IndexExists(ctx, IndexName())
	if err != nil {
		return 0, fmt.Errorf("check index: %w", err)
	}
	if !exists {
		return 0, nil
	}
	n, err := r.store.SearchCount(ctx, IndexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Reset drops the index and deletes every chunk hash. Returns the number of chunks removed.
func (r *Repo) Reset(ctx context.Context) (int, error) {
	if err := r.store.DropIndex(ctx, IndexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return 0, fmt.Errorf("drop index: %w", err)
	}

	keys, err := r.store.Scan(ctx, prefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("scan chunks: %w", err)
	}
	for i, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return i, fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return len(keys), nil
}
