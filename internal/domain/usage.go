package domain

import (
	"context"
	"sync"
)

type turnUsageKey struct{}

// TurnUsage collects upstream model usage for a single chat turn.
// The handler puts a pointer into the context, embedders and generators add to it,
// the handler reads it back for response headers. Search fan-out writes concurrently.
type TurnUsage struct {
	mu               sync.Mutex
	embeddingTokens  int
	generationTokens int
	embedCalls       int
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TurnUsage) {
	u := &TurnUsage{}
	return context.WithValue(ctx, turnUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector. Returns nil if not set.
func UsageFromContext(ctx context.Context) *TurnUsage {
	u, _ := ctx.Value(turnUsageKey{}).(*TurnUsage)
	return u
}

// AddEmbedding records one embedding call. Cache hits count as calls with zero tokens.
func (u *TurnUsage) AddEmbedding(tokens int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += tokens
	u.embedCalls++
	u.mu.Unlock()
}

// AddGeneration records tokens spent by answer or variant generation.
func (u *TurnUsage) AddGeneration(tokens int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generationTokens += tokens
	u.mu.Unlock()
}

// Snapshot returns embedding tokens, generation tokens and embedding call count.
func (u *TurnUsage) Snapshot() (embeddingTokens, generationTokens, embedCalls int) {
	if u == nil {
		return 0, 0, 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens, u.generationTokens, u.embedCalls
}
