// Package rerank is an HTTP client for a cross-encoder reranking service
// (text-embeddings-inference compatible POST /rerank).
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/outing/internal/domain"
)

// Config holds reranker connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client scores (query, text) pairs.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a rerank client. Timeout defaults to 5s.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type request struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type scored struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Score returns one score per text, aligned with texts.
// Any transport or format problem is wrapped with domain.ErrRerankUnavailable.
func (c *Client) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(request{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank: %v: %w", err, domain.ErrRerankUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank HTTP %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(msg)), domain.ErrRerankUnavailable)
	}

	var results []scored
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode rerank response: %v: %w", err, domain.ErrRerankUnavailable)
	}

	scores := make([]float64, len(texts))
	covered := make([]bool, len(texts))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("rerank index %d out of range: %w", r.Index, domain.ErrRerankUnavailable)
		}
		if covered[r.Index] {
			return nil, fmt.Errorf("rerank index %d scored twice: %w", r.Index, domain.ErrRerankUnavailable)
		}
		scores[r.Index] = r.Score
		covered[r.Index] = true
	}
	for i, ok := range covered {
		if !ok {
			return nil, fmt.Errorf("rerank returned no score for text %d of %d: %w", i, len(texts), domain.ErrRerankUnavailable)
		}
	}
	return scores, nil
}

// HealthCheck probes GET /health.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rerank health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rerank health: HTTP %d", resp.StatusCode)
	}
	return nil
}
