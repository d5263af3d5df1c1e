// Package embcache keeps query vectors in the shared key-value store. Parents
// ask the same few questions ("비 오는 날 실내 놀이터") over and over, and a
// 3584-dim remote embedding costs far more than a GET.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/outing/internal/db"
	"github.com/kailas-cloud/outing/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "emb_cache:"

// kv is the slice of db.KVStore the cache needs.
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder serves repeated queries from the store. Keys hash the model
// name with the normalized query, so switching models never returns stale vectors.
// Concurrent misses for the same key share one upstream call.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   kv
	model   string
	ttl     time.Duration
	lookups *prometheus.CounterVec
	group   singleflight.Group
	logger  *zap.Logger
}

// New wraps inner. lookups takes a single "result" label (hit, miss) and may be nil.
// A non-positive ttl keeps entries until evicted.
func New(
	inner domain.Embedder,
	store kv,
	model string,
	ttl time.Duration,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:   inner,
		store:   store,
		model:   model,
		ttl:     ttl,
		lookups: lookups,
		logger:  logger,
	}
}

// Embed returns the cached vector with zero tokens on a hit. Store failures
// degrade to a plain upstream call.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec, ok := c.load(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	var leader bool
	v, err, _ := c.group.Do(key, func() (any, error) {
		leader = true
		res, err := c.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		c.save(ctx, key, res.Embedding)
		return res, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	res := v.(domain.EmbeddingResult)
	if !leader {
		// Only the caller that ran the upstream request is billed.
		res.PromptTokens, res.TotalTokens = 0, 0
	}
	return res, nil
}

func (c *CachedEmbedder) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}

// key normalizes whitespace so "강남  놀이터 " and "강남 놀이터" share an entry.
func (c *CachedEmbedder) key(text string) string {
	norm := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(c.model + "\x00" + norm))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) load(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decode(data)
	if err != nil {
		c.logger.Warn("Embedding cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, encode(vec), c.ttl); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// encode writes little-endian float32s, the same layout FT.SEARCH takes for $BLOB.
func encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("bad entry length %d", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
