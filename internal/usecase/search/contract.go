package search

import (
	"context"

	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/search/filter"
)

// Repository runs KNN retrieval against the facility index.
type Repository interface {
	Search(
		ctx context.Context, vector []float32, filters filter.Expression,
		k int, includeVectors bool,
	) ([]facility.Document, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Expander paraphrases a query into up to n variants, excluding the query itself.
type Expander interface {
	Expand(ctx context.Context, query string, n int) ([]string, error)
}

// Reranker scores each text against the query; scores align with texts.
type Reranker interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}
