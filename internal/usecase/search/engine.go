// Package search is the retrieval pipeline: expand, retrieve, dedup, rerank, diversify.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/location"
	"github.com/kailas-cloud/outing/internal/domain/search/filter"
	"github.com/kailas-cloud/outing/internal/domain/search/mode"
	"github.com/kailas-cloud/outing/internal/domain/search/request"
	"github.com/kailas-cloud/outing/internal/logger"
	"github.com/kailas-cloud/outing/internal/metrics"
)

// Pipeline stage labels for metrics and logs.
const (
	stageExpand    = "expand"
	stageRetrieve  = "retrieve"
	stageRerank    = "rerank"
	stageDiversify = "diversify"
	stageSearch    = "search"
)

// Config tunes the pipeline.
type Config struct {
	CandidateK          int
	RerankTopK          int
	SimilarityThreshold float64
	MultiQuery          bool
	NumSubQueries       int
	Diversity           mode.Diversity
	MMRLambda           float64
	Timeout             time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CandidateK:          30,
		RerankTopK:          10,
		SimilarityThreshold: 0.3,
		NumSubQueries:       3,
		Diversity:           mode.Truncate,
		MMRLambda:           0.7,
		Timeout:             10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CandidateK <= 0 {
		c.CandidateK = d.CandidateK
	}
	if c.RerankTopK <= 0 {
		c.RerankTopK = d.RerankTopK
	}
	if c.NumSubQueries <= 0 {
		c.NumSubQueries = d.NumSubQueries
	}
	c.Diversity = c.Diversity.OrDefault()
	if c.MMRLambda <= 0 || c.MMRLambda > 1 {
		c.MMRLambda = d.MMRLambda
	}
	return c
}

// Engine executes searches. Expander and Reranker are optional.
type Engine struct {
	repo     Repository
	embed    Embedder
	expander Expander
	reranker Reranker
	cfg      Config
	logger   *zap.Logger
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithExpander enables query expansion when Config.MultiQuery is set.
func WithExpander(x Expander) Option { return func(e *Engine) { e.expander = x } }

// WithReranker enables cross-encoder reranking.
func WithReranker(r Reranker) Option { return func(e *Engine) { e.reranker = r } }

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// New creates a search engine.
func New(repo Repository, embed Embedder, cfg Config, opts ...Option) *Engine {
	e := &Engine{repo: repo, embed: embed, cfg: cfg.withDefaults(), logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// FilterFor builds the region filter: city and district when both are known, city alone otherwise.
func FilterFor(loc location.Location) (filter.Expression, error) {
	return filter.Equal(
		facility.FieldRegionCity, loc.City,
		facility.FieldRegionGu, loc.District,
	)
}

// Search returns at most req.TopK() documents, best first. It never fails:
// any stage error is logged and yields an empty list.
func (e *Engine) Search(ctx context.Context, req request.Request) []facility.Document {
	log := logger.FromContextOr(ctx, e.logger)
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	docs, err := e.search(ctx, req)
	if err != nil {
		metrics.SearchDegradedTotal.WithLabelValues(stageSearch, reason(err)).Inc()
		log.Warn("Search failed, returning no results",
			zap.String("query", req.Query()),
			zap.Error(err),
		)
		docs = []facility.Document{}
	}
	metrics.SearchResults.Observe(float64(len(docs)))
	return docs
}

func (e *Engine) search(ctx context.Context, req request.Request) ([]facility.Document, error) {
	queries := e.expand(ctx, req.Query())

	candidates, err := e.retrieve(ctx, queries, req.Filters())
	if err != nil {
		return nil, err
	}
	deduped := facility.Dedup(candidates)

	ranked := e.rerank(ctx, req.Query(), deduped)

	start := time.Now()
	var out []facility.Document
	if e.cfg.Diversity == mode.MMR {
		out = selectMMR(ranked, req.TopK(), e.cfg.MMRLambda)
	} else {
		out = truncate(ranked, req.TopK())
	}
	observe(stageDiversify, start)

	for i := range out {
		out[i].Vector = nil
	}
	return out, nil
}

// expand returns the original query first, followed by any paraphrases.
func (e *Engine) expand(ctx context.Context, query string) []string {
	queries := []string{query}
	if !e.cfg.MultiQuery || e.expander == nil {
		return queries
	}

	start := time.Now()
	variants, err := e.expander.Expand(ctx, query, e.cfg.NumSubQueries)
	observe(stageExpand, start)
	if err != nil {
		metrics.SearchDegradedTotal.WithLabelValues(stageExpand, reason(err)).Inc()
		logger.FromContextOr(ctx, e.logger).Warn("Query expansion failed, using original query only",
			zap.Error(err),
		)
		return queries
	}
	if len(variants) > e.cfg.NumSubQueries {
		variants = variants[:e.cfg.NumSubQueries]
	}
	return append(queries, variants...)
}

// retrieve runs one KNN query per variant concurrently and concatenates results in variant order.
// Only a failure of the original query fails the search; variant failures are dropped.
func (e *Engine) retrieve(
	ctx context.Context, queries []string, filters filter.Expression,
) ([]facility.Document, error) {
	start := time.Now()
	defer observe(stageRetrieve, start)

	includeVectors := e.cfg.Diversity == mode.MMR
	perQuery := make([][]facility.Document, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			docs, err := e.retrieveOne(gctx, q, filters, includeVectors)
			if err != nil {
				if i == 0 {
					return err
				}
				metrics.SearchDegradedTotal.WithLabelValues(stageRetrieve, reason(err)).Inc()
				logger.FromContextOr(ctx, e.logger).Warn("Variant retrieval failed, skipping",
					zap.String("variant", q),
					zap.Error(err),
				)
				return nil
			}
			perQuery[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []facility.Document
	for _, docs := range perQuery {
		all = append(all, docs...)
	}
	return all, nil
}

func (e *Engine) retrieveOne(
	ctx context.Context, query string, filters filter.Expression, includeVectors bool,
) ([]facility.Document, error) {
	emb, err := e.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	docs, err := e.repo.Search(ctx, emb.Embedding, filters, e.cfg.CandidateK, includeVectors)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return docs, nil
}

// rerank scores candidates, drops those below the threshold, sorts descending and caps.
// Without a reranker, on error, or when nothing passes, the first RerankTopK
// deduplicated candidates are kept in retrieval order.
func (e *Engine) rerank(ctx context.Context, query string, docs []facility.Document) []facility.Document {
	fallback := truncate(docs, e.cfg.RerankTopK)
	if e.reranker == nil || len(docs) == 0 {
		return fallback
	}

	start := time.Now()
	defer observe(stageRerank, start)

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	scores, err := e.reranker.Score(ctx, query, texts)
	if err == nil && len(scores) != len(docs) {
		err = fmt.Errorf("got %d scores for %d documents", len(scores), len(docs))
	}
	if err != nil {
		metrics.SearchDegradedTotal.WithLabelValues(stageRerank, reason(err)).Inc()
		logger.FromContextOr(ctx, e.logger).Warn("Rerank failed, keeping retrieval order",
			zap.Error(err),
		)
		return fallback
	}

	kept := make([]facility.Document, 0, len(docs))
	for i, d := range docs {
		if scores[i] < e.cfg.SimilarityThreshold {
			continue
		}
		s := scores[i]
		d.Relevance = &s
		kept = append(kept, d)
	}
	if len(kept) == 0 {
		metrics.SearchDegradedTotal.WithLabelValues(stageRerank, "below_threshold").Inc()
		return fallback
	}

	sort.SliceStable(kept, func(i, j int) bool { return *kept[i].Relevance > *kept[j].Relevance })
	return truncate(kept, e.cfg.RerankTopK)
}

func truncate(docs []facility.Document, n int) []facility.Document {
	if len(docs) > n {
		docs = docs[:n]
	}
	out := make([]facility.Document, len(docs))
	copy(out, docs)
	return out
}

func observe(stage string, start time.Time) {
	metrics.SearchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func reason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
