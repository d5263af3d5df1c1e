package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// newClient builds a go-openai client for any OpenAI-compatible endpoint
// (Nebius, vLLM, Ollama). An empty baseURL keeps the public API.
func newClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(cfg)
}

// parseAPIError turns a go-openai failure into a readable error wrapping sentinel.
func parseAPIError(err error, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := detailFromBody(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return fmt.Errorf("upstream %d: %s: %w", reqErr.HTTPStatusCode, msg, sentinel)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("upstream %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}
	return fmt.Errorf("%v: %w", err, sentinel)
}

// detailFromBody reads {"detail": "..."}, the error shape Nebius and vLLM return.
func detailFromBody(body []byte) string {
	var v struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	return v.Detail
}
