package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker checks an upstream provider (embedding, reranker, generator).
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// IndexCounter reports how many facilities the vector index holds.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}
