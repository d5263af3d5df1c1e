package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/outing/internal/db"
	domsession "github.com/kailas-cloud/outing/internal/domain/session"
)

// fakeStore is a map-backed stand-in for the KV and sorted-set commands.
type fakeStore struct {
	mu     sync.Mutex
	kv     map[string][]byte
	ttls   map[string]time.Duration
	zset   map[string]map[string]float64
	getErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		kv:   make(map[string][]byte),
		ttls: make(map[string]time.Duration),
		zset: make(map[string]map[string]float64),
	}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.kv, k)
	}
	return nil
}

func (f *fakeStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.zset[key] == nil {
		f.zset[key] = make(map[string]float64)
	}
	f.zset[key][member] = score
	return nil
}

func (f *fakeStore) ZRem(_ context.Context, key string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		delete(f.zset[key], m)
	}
	return nil
}

func (f *fakeStore) ZCard(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.zset[key])), nil
}

func (f *fakeStore) ZRangeByRank(_ context.Context, key string, start, stop int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := f.sortedLocked(key)
	if start >= int64(len(members)) {
		return nil, nil
	}
	if stop >= int64(len(members)) {
		stop = int64(len(members)) - 1
	}
	return members[start : stop+1], nil
}

func (f *fakeStore) ZRemRangeByScore(_ context.Context, key string, maxScore float64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for m, s := range f.zset[key] {
		if s <= maxScore {
			delete(f.zset[key], m)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) sortedLocked(key string) []string {
	set := f.zset[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if set[members[i]] == set[members[j]] {
			return members[i] < members[j]
		}
		return set[members[i]] < set[members[j]]
	})
	return members
}

var baseTime = time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)

func testSession(id string, at time.Time) *domsession.Session {
	s := domsession.New(id, at)
	s.Append(domsession.RoleUser, "강남 놀이터 찾아줘", at)
	s.Append(domsession.RoleAssistant, "강남구 날씨는 맑음이에요.", at)
	return s
}
