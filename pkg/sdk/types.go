package ragchat

import "time"

// Passage is one stored chunk returned by Search.
type Passage struct {
	ID         string
	Filename   string // relative to the ingested directory
	ChunkIndex int
	Content    string
	Distance   float64 // cosine distance, lower is closer
}

// IngestReport summarizes one Ingest call.
type IngestReport struct {
	Processed int
	Skipped   int // no extractable text
	Failed    int
	Chunks    int
	Duration  time.Duration
}
