package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals an empty or malformed user query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrWeatherUnavailable signals a failed or unparsable weather provider response.
	ErrWeatherUnavailable = errors.New("weather unavailable")
	// ErrGenerationFailed signals a failed answer/variant generation call.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrRerankUnavailable signals that the cross-encoder could not score candidates.
	ErrRerankUnavailable = errors.New("rerank unavailable")
	// ErrSessionNotFound signals a missing conversation session.
	ErrSessionNotFound = errors.New("session not found")
)

// KeyPrefix namespaces every key this service writes to the database.
const KeyPrefix = "outing:"
