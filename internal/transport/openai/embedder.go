package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/outing/internal/domain"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions must match the facility index; vectors of another length are rejected.
	Dimensions int
	// RequestDimensions sends Dimensions in the request body. Only Matryoshka-capable
	// models accept it; Qwen3-Embedding served by vLLM rejects the field.
	RequestDimensions bool
	User              string
	Timeout           time.Duration
	Logger            *zap.Logger
}

// Embedder vectorizes queries through an OpenAI-compatible /embeddings endpoint.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	sendDims   bool
	user       string
	logger     *zap.Logger
}

func NewEmbedder(cfg *Config) *Embedder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		client:     newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		sendDims:   cfg.RequestDimensions,
		user:       cfg.User,
		logger:     logger,
	}
}

// Embed returns the query vector. A response whose length differs from the
// configured dimension fails with domain.ErrVectorDimMismatch, so a misconfigured
// model never reaches FT.SEARCH.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.sendDims && e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("create embeddings: %w",
			parseAPIError(err, domain.ErrEmbeddingProviderError))
	}
	if len(resp.Data) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("create embeddings: no data: %w", domain.ErrEmbeddingProviderError)
	}

	vec := resp.Data[0].Embedding
	if err := domain.CheckVector(vec, e.dimensions); err != nil {
		e.logger.Warn("Embedding rejected",
			zap.String("model", string(e.model)),
			zap.Int("got", len(vec)),
			zap.Int("want", e.dimensions),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("create embeddings: %w", err)
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", parseAPIError(err, domain.ErrEmbeddingProviderError))
	}
	return nil
}
