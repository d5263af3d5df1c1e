package db

import "github.com/kailas-cloud/outing/internal/domain/search/filter"

// KNNQuery asks for the K nearest hashes to Vector, optionally pre-filtered by TAG equality.
type KNNQuery struct {
	IndexName    string
	VectorField  string // "" means "vector"
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult holds hits nearest first. Total is the server-side match count.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hash from an FT.SEARCH reply.
type SearchEntry struct {
	Key string
	// Distance is the raw __vector_score (cosine distance for the facility index).
	Distance float64
	Fields   map[string]string
}
