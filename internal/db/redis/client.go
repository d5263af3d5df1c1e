// Package redis implements db.Store on rueidis. One client serves Redis 8
// (search built in) and Valkey with the valkey-search module.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/outing/internal/db"
)

var _ db.Store = (*Store)(nil)

// Flavor is the server family. valkey-search has no TEXT fields, so index
// definitions are trimmed for it.
type Flavor string

const (
	FlavorRedis  Flavor = "redis"
	FlavorValkey Flavor = "valkey"
)

// Config holds connection parameters.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	DB         int
	Flavor     Flavor
	ClientName string
}

// Store implements db.Store.
type Store struct {
	client rueidis.Client
	flavor Flavor
}

// NewStore dials the configured addresses. An empty Flavor means FlavorRedis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}
	flavor := cfg.Flavor
	switch flavor {
	case "":
		flavor = FlavorRedis
	case FlavorRedis, FlavorValkey:
	default:
		return nil, fmt.Errorf("redis: unknown flavor %q", flavor)
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   cfg.ClientName,
		DisableCache: true,
		// FT.SEARCH replies are parsed as RESP2 arrays.
		AlwaysRESP2: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: new client: %w", err)
	}
	return &Store{client: client, flavor: flavor}, nil
}

// Flavor reports the server family the store was configured for.
func (s *Store) Flavor() Flavor { return s.flavor }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings until the server answers, backing off from 50ms up to 1s
// between attempts. The last ping error is returned on timeout.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := 50 * time.Millisecond
	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %s: %w", timeout, err)
		case <-time.After(delay):
		}
		delay = min(2*delay, time.Second)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a server error whose message contains substr,
// ignoring case. Redis and Valkey word some errors differently in case only.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
