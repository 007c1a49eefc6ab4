package ragchat

import (
	"context"

	domret "github.com/kailas-cloud/ragchat/internal/domain/retrieval"
	healthuc "github.com/kailas-cloud/ragchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragchat/internal/usecase/ingest"
)

// --- ingestUseCase mock ---

type mockIngestUC struct {
	runFn func(ctx context.Context) (ingestuc.Report, error)
}

func (m *mockIngestUC) Run(ctx context.Context) (ingestuc.Report, error) {
	return m.runFn(ctx)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	queryFn func(ctx context.Context, text string, n int) ([]domret.Passage, error)
}

func (m *mockSearchUC) Query(ctx context.Context, text string, n int) ([]domret.Passage, error) {
	return m.queryFn(ctx, text, n)
}

// --- retrievalUseCase mock ---

type mockRetrievalUC struct {
	contextFn func(ctx context.Context, query string) string
}

func (m *mockRetrievalUC) Context(ctx context.Context, query string) string {
	return m.contextFn(ctx, query)
}

// --- resetter mock ---

type mockResetter struct {
	n   int
	err error
}

func (m *mockResetter) Reset(context.Context) (int, error) { return m.n, m.err }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- embedders ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}
