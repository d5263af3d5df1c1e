package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/metrics"
)

// Purpose labels for generation metrics.
const (
	PurposeAnswer = "answer"
	PurposeExpand = "expand"
)

// ChatConfig holds the chat completion settings.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Purpose     string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Generator implements domain.Generator via CreateChatCompletion.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	purpose     string
	logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat generator.
func NewGenerator(cfg *ChatConfig) *Generator {
	purpose := cfg.Purpose
	if purpose == "" {
		purpose = PurposeAnswer
	}

	return &Generator{
		client:      newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		purpose:     purpose,
		logger:      cfg.Logger,
	}
}

// Generate returns the first choice's content. Empty completions are an error.
func (g *Generator) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
	}
	if g.maxTokens > 0 {
		req.MaxTokens = g.maxTokens
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.purpose, g.model, "error").Inc()
		return "", fmt.Errorf("chat completion: %w", parseAPIError(err, domain.ErrGenerationFailed))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(g.purpose, g.model, "error").Inc()
		return "", fmt.Errorf("empty completion: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.purpose, g.model, "success").Inc()
	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.purpose, g.model).Add(float64(resp.Usage.TotalTokens))
	}
	domain.UsageFromContext(ctx).AddGeneration(resp.Usage.TotalTokens)

	g.logger.Debug("Chat completion finished",
		zap.String("purpose", g.purpose),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

const expandSystemPrompt = "당신은 어린이 체험 시설 검색을 돕는 도우미입니다. " +
	"사용자 질문을 같은 의미의 다른 검색 문장으로 바꿔 주세요. " +
	"한 줄에 하나씩, 번호나 설명 없이 문장만 출력하세요."

// Expander produces paraphrased search queries through a Generator.
type Expander struct {
	gen domain.Generator
}

// NewExpander wraps a generator for query expansion.
func NewExpander(gen domain.Generator) *Expander {
	return &Expander{gen: gen}
}

// Expand returns up to n paraphrases of query, excluding the query itself.
func (e *Expander) Expand(ctx context.Context, query string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	text, err := e.gen.Generate(ctx, domain.Prompt{
		System: expandSystemPrompt,
		User:   fmt.Sprintf("질문: %s\n바꿔 쓴 문장 %d개:", query, n),
	})
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}
	return parseVariants(text, query, n), nil
}

// parseVariants splits generator output into distinct lines, stripping list markers.
func parseVariants(text, original string, n int) []string {
	seen := map[string]struct{}{strings.TrimSpace(original): {}}
	out := make([]string, 0, n)
	for _, line := range strings.Split(text, "\n") {
		v := strings.TrimSpace(line)
		v = strings.TrimLeft(v, "-*•0123456789.) ")
		v = strings.Trim(v, "\"'")
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == n {
			break
		}
	}
	return out
}
