package search

import (
	"context"
	"errors"
	"sync"

	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/search/filter"
)

// fakeEmbedder maps each known text to a one-hot key so fakeRepo can tell variants apart.
type fakeEmbedder struct {
	keys map[string]float32
	errs map[string]error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if err := f.errs[text]; err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: []float32{f.keys[text]}}, nil
}

type repoCall struct {
	filters        filter.Expression
	k              int
	includeVectors bool
}

type fakeRepo struct {
	mu    sync.Mutex
	byKey map[float32][]facility.Document
	err   error
	calls []repoCall
}

func (f *fakeRepo) Search(
	_ context.Context, vector []float32, filters filter.Expression, k int, includeVectors bool,
) ([]facility.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, repoCall{filters: filters, k: k, includeVectors: includeVectors})
	if f.err != nil {
		return nil, f.err
	}
	return f.byKey[vector[0]], nil
}

type fakeExpander struct {
	variants []string
	err      error
	calls    int
}

func (f *fakeExpander) Expand(_ context.Context, _ string, n int) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.variants) > n {
		return f.variants[:n], nil
	}
	return f.variants, nil
}

type fakeReranker struct {
	scores map[string]float64
	err    error
	texts  []string
}

func (f *fakeReranker) Score(_ context.Context, _ string, texts []string) ([]float64, error) {
	f.texts = texts
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = f.scores[t]
	}
	return out, nil
}

var errBoom = errors.New("boom")

func doc(name string, similarity float64, vec ...float32) facility.Document {
	return facility.Document{
		ID:         "id-" + name,
		Content:    name + " 설명",
		Metadata:   map[string]string{facility.FieldName: name},
		Similarity: similarity,
		Vector:     vec,
	}
}

func names(docs []facility.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name()
	}
	return out
}
