package embcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/outing/internal/db"
	"github.com/kailas-cloud/outing/internal/domain"
)

type countingEmbedder struct {
	result  domain.EmbeddingResult
	err     error
	release chan struct{}
	calls   atomic.Int32
}

func (e *countingEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	e.calls.Add(1)
	if e.release != nil {
		<-e.release
	}
	return e.result, e.err
}

// memKV is an in-memory kv. getErr and setErr simulate a flaky store.
type memKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func vec3() domain.EmbeddingResult {
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, PromptTokens: 10, TotalTokens: 10}
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &countingEmbedder{result: vec3()}
	store := newMemKV()
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_lookups_total"}, []string{"result"})
	c := New(inner, store, "Qwen/Qwen3-Embedding-8B", 7*24*time.Hour, lookups, zap.NewNop())
	ctx := context.Background()

	first, err := c.Embed(ctx, "비 오는 날 실내 놀이터")
	if err != nil {
		t.Fatalf("miss: %v", err)
	}
	if first.TotalTokens != 10 {
		t.Errorf("miss tokens = %d, want 10", first.TotalTokens)
	}

	second, err := c.Embed(ctx, "  비 오는 날   실내 놀이터 ")
	if err != nil {
		t.Fatalf("hit: %v", err)
	}
	if second.TotalTokens != 0 || second.Embedding[2] != 0.3 {
		t.Errorf("hit = %+v, want cached vector with zero tokens", second)
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner calls = %d, want 1", n)
	}
	for k, ttl := range store.ttls {
		if ttl != 7*24*time.Hour {
			t.Errorf("ttl for %s = %v", k, ttl)
		}
	}
	if testutil.ToFloat64(lookups.WithLabelValues("hit")) != 1 || testutil.ToFloat64(lookups.WithLabelValues("miss")) != 1 {
		t.Error("expected one hit and one miss")
	}
}

func TestEmbed_InnerErrorNotCached(t *testing.T) {
	inner := &countingEmbedder{err: domain.ErrEmbeddingProviderError}
	store := newMemKV()
	c := New(inner, store, "m", 0, nil, nil)

	if _, err := c.Embed(context.Background(), "q"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(store.data) != 0 {
		t.Errorf("failed embeds must not be cached, got %d entries", len(store.data))
	}
}

func TestEmbed_StoreFailuresDegrade(t *testing.T) {
	inner := &countingEmbedder{result: vec3()}
	store := newMemKV()
	store.getErr = errors.New("connection reset")
	store.setErr = errors.New("connection reset")
	c := New(inner, store, "m", 0, nil, zap.NewNop())

	res, err := c.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("store failures must not fail the embed: %v", err)
	}
	if len(res.Embedding) != 3 {
		t.Errorf("embedding = %v", res.Embedding)
	}
}

func TestEmbed_CorruptEntryFallsThrough(t *testing.T) {
	inner := &countingEmbedder{result: vec3()}
	store := newMemKV()
	c := New(inner, store, "m", 0, nil, zap.NewNop())
	store.data[c.key("q")] = []byte{1, 2, 3}

	if _, err := c.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls.Load() != 1 {
		t.Error("expected a fresh upstream call for an unreadable entry")
	}
	if got, _ := decode(store.data[c.key("q")]); len(got) != 3 {
		t.Errorf("entry not rewritten: %v", got)
	}
}

func TestEmbed_ConcurrentMissesCollapse(t *testing.T) {
	inner := &countingEmbedder{result: vec3(), release: make(chan struct{})}
	c := New(inner, newMemKV(), "m", 0, nil, zap.NewNop())

	const callers = 5
	var (
		wg     sync.WaitGroup
		tokens atomic.Int32
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Embed(context.Background(), "강남 키즈카페")
			if err != nil {
				t.Errorf("embed: %v", err)
				return
			}
			tokens.Add(int32(res.TotalTokens))
		}()
	}
	// Let the callers pile up behind the first upstream call.
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner calls = %d, want 1", n)
	}
	if got := tokens.Load(); got != 10 {
		t.Errorf("billed tokens = %d, want 10 across all callers", got)
	}
}

func TestKey(t *testing.T) {
	a := New(nil, newMemKV(), "model-a", 0, nil, nil)
	b := New(nil, newMemKV(), "model-b", 0, nil, nil)

	if a.key("같은 문장") == b.key("같은 문장") {
		t.Error("keys must differ across models")
	}
	if a.key("같은 문장") != a.key("같은  문장 ") {
		t.Error("whitespace must not change the key")
	}
	if !strings.HasPrefix(a.key("x"), "outing:emb_cache:") {
		t.Errorf("unexpected prefix: %s", a.key("x"))
	}
}

func TestEncodeDecode(t *testing.T) {
	in := []float32{-1.5, 0, 3.25}
	out, err := decode(encode(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("component %d: %v != %v", i, out[i], in[i])
		}
	}
	if _, err := decode(nil); err == nil {
		t.Error("empty entry must be rejected")
	}
}
