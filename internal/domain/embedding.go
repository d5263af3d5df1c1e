package domain

import (
	"context"
	"fmt"
	"math"
)

// Embedder turns a search query into a vector comparable with the facility index.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one query vector plus the tokens the provider billed for it.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// CheckVector rejects empty vectors, non-finite components and, when dim > 0,
// vectors whose length differs from the index dimension.
func CheckVector(v []float32, dim int) error {
	if len(v) == 0 {
		return fmt.Errorf("empty vector: %w", ErrEmbeddingProviderError)
	}
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("got %d components, index expects %d: %w", len(v), dim, ErrVectorDimMismatch)
	}
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return fmt.Errorf("component %d is not finite: %w", i, ErrEmbeddingProviderError)
		}
	}
	return nil
}

// InstructionEmbedder prefixes queries with a retrieval instruction. Facility
// documents were indexed as plain text, so only the query side carries it.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	if err := CheckVector(result.Embedding, 0); err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
