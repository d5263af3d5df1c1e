package chat

import (
	"context"

	"github.com/kailas-cloud/outing/internal/domain/analysis"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/location"
	"github.com/kailas-cloud/outing/internal/domain/mapdata"
	"github.com/kailas-cloud/outing/internal/domain/search/request"
	"github.com/kailas-cloud/outing/internal/domain/session"
	"github.com/kailas-cloud/outing/internal/domain/weather"
)

// SessionStore persists conversations. Get returns domain.ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Classifier decides the turn's intent.
type Classifier interface {
	Classify(query string, sess *session.Session) analysis.Analysis
}

// Searcher returns facilities best first; failures come back as an empty list.
type Searcher interface {
	Search(ctx context.Context, req request.Request) []facility.Document
}

// WeatherService always returns a well-formed report.
type WeatherService interface {
	Lookup(ctx context.Context, loc location.Location, date string) weather.Report
}

// Composer renders reply text.
type Composer interface {
	Answer(ctx context.Context, query string, a analysis.Analysis, w weather.Report, docs []facility.Document) string
	Emotion(group string) string
	Map(set mapdata.MarkerSet) string
}
