package domain

import "context"

// Prompt is a single-turn chat completion request.
type Prompt struct {
	System string
	User   string
}

// Generator produces free text from a prompt. Implementations record their token
// usage on the TurnUsage carried by ctx.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}
