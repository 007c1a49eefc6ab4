package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit. For KNN queries Distance is the raw __vector_score
// (cosine distance, 0 = identical).
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
