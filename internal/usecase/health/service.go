package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; chat still answers through fallbacks.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckEmpty means the index exists but holds no facilities.
	CheckEmpty CheckResult = "empty"
)

// Component names used as Checks keys.
const (
	ComponentDatabase    = "database"
	ComponentEmbedding   = "embedding"
	ComponentVectorIndex = "vector_index"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	Checks     map[string]CheckResult
	Facilities int
}

// DefaultCheckTimeout bounds each probe so one slow upstream cannot stall /health.
const DefaultCheckTimeout = 3 * time.Second

type probe struct {
	name string
	run  func(ctx context.Context) (CheckResult, int)
}

// Service runs the probes concurrently, each under its own timeout.
type Service struct {
	db        DBPinger
	embedding Checker
	index     IndexCounter
	extra     []probe
	timeout   time.Duration
}

// Option adds an optional component.
type Option func(*Service)

// WithIndex checks the facility vector index.
func WithIndex(idx IndexCounter) Option { return func(s *Service) { s.index = idx } }

// WithChecker adds a named upstream check such as "rerank" or "generation".
func WithChecker(name string, c Checker) Option {
	return func(s *Service) { s.extra = append(s.extra, probe{name: name, run: pass(c.HealthCheck)}) }
}

// WithTimeout overrides DefaultCheckTimeout.
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding Checker, opts ...Option) *Service {
	s := &Service{db: db, embedding: embedding, timeout: DefaultCheckTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) probes() []probe {
	ps := []probe{{name: ComponentDatabase, run: pass(s.db.Ping)}}
	if s.embedding != nil {
		ps = append(ps, probe{name: ComponentEmbedding, run: pass(s.embedding.HealthCheck)})
	}
	if s.index != nil {
		ps = append(ps, probe{name: ComponentVectorIndex, run: s.countIndex})
	}
	return append(ps, s.extra...)
}

// Check probes every component. A database failure is Unhealthy; any other
// failing or empty component is Degraded.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Checks: make(map[string]CheckResult)}
	var mu sync.Mutex

	var g errgroup.Group
	for _, p := range s.probes() {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			res, n := p.run(pctx)

			mu.Lock()
			defer mu.Unlock()
			r.Checks[p.name] = res
			if p.name == ComponentVectorIndex {
				r.Facilities = n
			}
			return nil
		})
	}
	_ = g.Wait()

	r.Status = Healthy
	for _, v := range r.Checks {
		if v != CheckOK {
			r.Status = Degraded
			break
		}
	}
	if r.Checks[ComponentDatabase] == CheckError {
		r.Status = Unhealthy
	}
	return r
}

func (s *Service) countIndex(ctx context.Context) (CheckResult, int) {
	n, err := s.index.Count(ctx)
	switch {
	case err != nil:
		return CheckError, 0
	case n == 0:
		return CheckEmpty, 0
	default:
		return CheckOK, n
	}
}

func pass(check func(context.Context) error) func(context.Context) (CheckResult, int) {
	return func(ctx context.Context) (CheckResult, int) {
		if err := check(ctx); err != nil {
			return CheckError, 0
		}
		return CheckOK, 0
	}
}
