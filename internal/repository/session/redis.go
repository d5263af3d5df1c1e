package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/outing/internal/db"
	"github.com/kailas-cloud/outing/internal/domain"
	domsession "github.com/kailas-cloud/outing/internal/domain/session"
)

var (
	keyPrefix   = domain.KeyPrefix + "session:"
	recencyKey  = domain.KeyPrefix + "sessions"
	errNilStore = errors.New("session store: nil db store")
)

// store is the consumer interface for the Redis session backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRem(ctx context.Context, key string, members ...string) error
	ZCard(ctx context.Context, key string) (int64, error)
	ZRangeByRank(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRemRangeByScore(ctx context.Context, key string, maxScore float64) (int64, error)
}

// RedisStore keeps each session as a JSON blob with a TTL plus a ZSET of ids scored
// by last update time, used for counting and oldest-first eviction.
type RedisStore struct {
	store       store
	maxSessions int
	ttl         time.Duration
	now         func() time.Time
}

// NewRedis creates a Redis-backed session store.
func NewRedis(s store, maxSessions int, ttl time.Duration) (*RedisStore, error) {
	if s == nil {
		return nil, errNilStore
	}
	return &RedisStore{store: s, maxSessions: maxSessions, ttl: ttl, now: time.Now}, nil
}

// Get loads a session or returns domain.ErrSessionNotFound.
func (r *RedisStore) Get(ctx context.Context, id string) (*domsession.Session, error) {
	data, err := r.store.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return unmarshalSession(data)
}

// Save writes the blob, bumps recency and evicts above the ceiling.
func (r *RedisStore) Save(ctx context.Context, s *domsession.Session) error {
	data, err := marshalSession(s)
	if err != nil {
		return err
	}
	if err := r.store.SetWithTTL(ctx, sessionKey(s.ID), data, r.ttl); err != nil {
		return fmt.Errorf("set session %s: %w", s.ID, err)
	}
	if err := r.store.ZAdd(ctx, recencyKey, score(s.UpdatedAt), s.ID); err != nil {
		return fmt.Errorf("index session %s: %w", s.ID, err)
	}
	return r.evict(ctx)
}

// Delete removes the blob and its recency entry.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if err := r.store.ZRem(ctx, recencyKey, id); err != nil {
		return fmt.Errorf("unindex session %s: %w", id, err)
	}
	return nil
}

// Count returns the number of live sessions.
func (r *RedisStore) Count(ctx context.Context) (int, error) {
	if err := r.pruneExpired(ctx); err != nil {
		return 0, err
	}
	n, err := r.store.ZCard(ctx, recencyKey)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return int(n), nil
}

// pruneExpired drops recency entries whose blobs already expired via TTL.
func (r *RedisStore) pruneExpired(ctx context.Context) error {
	if r.ttl <= 0 {
		return nil
	}
	if _, err := r.store.ZRemRangeByScore(ctx, recencyKey, score(r.now().Add(-r.ttl))); err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	return nil
}

func (r *RedisStore) evict(ctx context.Context) error {
	if err := r.pruneExpired(ctx); err != nil {
		return err
	}
	if r.maxSessions <= 0 {
		return nil
	}

	n, err := r.store.ZCard(ctx, recencyKey)
	if err != nil {
		return fmt.Errorf("count sessions: %w", err)
	}
	excess := n - int64(r.maxSessions)
	if excess <= 0 {
		return nil
	}

	ids, err := r.store.ZRangeByRank(ctx, recencyKey, 0, excess-1)
	if err != nil {
		return fmt.Errorf("oldest sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("evict sessions: %w", err)
	}
	if err := r.store.ZRem(ctx, recencyKey, ids...); err != nil {
		return fmt.Errorf("unindex evicted sessions: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
