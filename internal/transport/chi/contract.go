package chi

import (
	"context"

	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/search/request"
	"github.com/kailas-cloud/outing/internal/domain/weather"
	chatuc "github.com/kailas-cloud/outing/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/outing/internal/usecase/health"
)

// ChatService is the turn orchestrator.
type ChatService interface {
	HandleMessage(ctx context.Context, message, conversationID string) (chatuc.Reply, error)
	ClearHistory(ctx context.Context, conversationID string) error
	SessionCount(ctx context.Context) (int, error)
}

// SearchService runs the facility retrieval pipeline.
type SearchService interface {
	Search(ctx context.Context, req request.Request) []facility.Document
}

// WeatherService resolves free-text locations to a report.
type WeatherService interface {
	LookupText(ctx context.Context, text, date string) weather.Report
}

// HealthService aggregates component checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
