// Package synthetic provides deterministic stand-ins for the model-backed strategies,
// selected at startup when no trained encoder is configured.
package synthetic

import (
	"context"
	"crypto/md5" //nolint:gosec // seed derivation, not security
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/kailas-cloud/outing/internal/domain"
)

// DefaultDimensions matches the facility index.
const DefaultDimensions = 3584

// HashEmbedder maps text to a unit vector drawn from N(0,1) with an md5-derived seed.
// Identical input always yields the identical vector.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder. dims <= 0 uses DefaultDimensions.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Embed implements domain.Embedder. Token counts are always zero.
func (e *HashEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: e.vector(text)}, nil
}

// HealthCheck always succeeds.
func (e *HashEmbedder) HealthCheck(context.Context) error {
	return nil
}

// Dimensions returns the vector size.
func (e *HashEmbedder) Dimensions() int {
	return e.dims
}

func (e *HashEmbedder) vector(text string) []float32 {
	sum := md5.Sum([]byte(text)) //nolint:gosec // see import
	rng := rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[:8]),
		binary.BigEndian.Uint64(sum[8:]),
	))

	raw := make([]float64, e.dims)
	var norm float64
	for i := range raw {
		raw[i] = rng.NormFloat64()
		norm += raw[i] * raw[i]
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dims)
	if norm == 0 {
		return vec
	}
	for i, v := range raw {
		vec[i] = float32(v / norm)
	}
	return vec
}

var _ domain.Embedder = (*HashEmbedder)(nil)
