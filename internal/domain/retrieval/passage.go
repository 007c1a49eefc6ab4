// Package retrieval holds the store's answer to a similarity query.
package retrieval

// Passage is a chunk returned by a similarity query.
// Distance is cosine distance in [0, 2]; lower is more similar.
type Passage struct {
	id         string
	text       string
	distance   float64
	filename   string
	chunkIndex int
}

// NewPassage creates a passage.
func NewPassage(id, text string, distance float64, filename string, chunkIndex int) Passage {
	return Passage{id: id, text: text, distance: distance, filename: filename, chunkIndex: chunkIndex}
}

func (p Passage) ID() string { return p.id }

// Text returns the chunk content.
func (p Passage) Text() string { return p.text }

// Distance returns the cosine distance to the query.
func (p Passage) Distance() float64 { return p.distance }

// Relevance returns 1 - distance, the value shown to the LLM.
func (p Passage) Relevance() float64 { return 1 - p.distance }

func (p Passage) Filename() string { return p.filename }
func (p Passage) ChunkIndex() int { return p.chunkIndex }
