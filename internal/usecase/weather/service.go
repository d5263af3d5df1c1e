// Package weather turns a location into a weather report that is always well-formed.
package weather

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	domweather "github.com/kailas-cloud/outing/internal/domain/weather"
	"github.com/kailas-cloud/outing/internal/domain/location"
	"github.com/kailas-cloud/outing/internal/logger"
	"github.com/kailas-cloud/outing/internal/metrics"
)

// errNotConfigured is reported when no provider is wired (no API key).
var errNotConfigured = errors.New("weather provider not configured")

// kst is the provider's local time; hour-of-day readings are computed in it.
var kst = time.FixedZone("KST", 9*60*60)

// Provider returns the current reading for a KMA station code.
type Provider interface {
	Current(ctx context.Context, station string) (domweather.Reading, error)
}

// Service looks up weather with a deterministic fallback.
type Service struct {
	provider Provider
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for hour-of-day values.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New creates a weather service. A nil provider always falls back.
func New(p Provider, l *zap.Logger, opts ...Option) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	s := &Service{provider: p, now: time.Now, logger: l}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Lookup returns the report for loc. date is echoed on the report; the provider
// only serves the current forecast. Failures produce a fallback report carrying the reason.
func (s *Service) Lookup(ctx context.Context, loc location.Location, date string) domweather.Report {
	return s.lookup(ctx, location.Station(loc), loc.String(), date)
}

// LookupText resolves free text to a station through the shared gazetteer.
// Unresolvable text uses the default station and keeps the text as the label.
func (s *Service) LookupText(ctx context.Context, text, date string) domweather.Report {
	station, loc := location.ResolveStation(text)
	label := text
	if !loc.IsZero() {
		label = loc.String()
	}
	return s.lookup(ctx, station, label, date)
}

func (s *Service) lookup(ctx context.Context, station, label, date string) domweather.Report {
	hour := s.now().In(kst).Hour()

	if s.provider == nil {
		return s.fallback(ctx, station, label, date, hour, errNotConfigured)
	}

	r, err := s.provider.Current(ctx, station)
	if err != nil {
		return s.fallback(ctx, station, label, date, hour, err)
	}

	metrics.WeatherLookupsTotal.WithLabelValues(string(domweather.SourceLive)).Inc()
	return domweather.Report{
		Location:     label,
		Station:      station,
		Date:         date,
		Status:       r.Status,
		Description:  r.Description,
		TemperatureC: liveTemperature(hour),
		Humidity:     60,
		WindSpeed:    1.5,
		Rainfall:     r.RainProbability,
		Source:       domweather.SourceLive,
	}
}

func (s *Service) fallback(
	ctx context.Context, station, label, date string, hour int, cause error,
) domweather.Report {
	metrics.WeatherLookupsTotal.WithLabelValues(string(domweather.SourceFallback)).Inc()
	if !errors.Is(cause, errNotConfigured) {
		logger.FromContextOr(ctx, s.logger).Warn("Weather provider failed, using fallback reading",
			zap.String("station", station),
			zap.Error(cause),
		)
	}

	temp, desc := fallbackReading(hour)
	return domweather.Report{
		Location:     label,
		Station:      station,
		Date:         date,
		Status:       domweather.Clear,
		Description:  desc,
		TemperatureC: temp,
		Humidity:     60,
		WindSpeed:    1.5,
		Rainfall:     0,
		Source:       domweather.SourceFallback,
		Error:        cause.Error(),
	}
}

// liveTemperature: the forecast endpoint carries no temperature, so it is estimated by time of day.
func liveTemperature(hour int) float64 {
	switch {
	case hour >= 6 && hour < 12:
		return 12
	case hour >= 12 && hour < 18:
		return 18
	default:
		return 10
	}
}

// fallbackReading is a smooth daily curve: warming through the morning, peaking in the
// afternoon, cooling at night.
func fallbackReading(hour int) (float64, string) {
	h := float64(hour)
	var temp float64
	var desc string
	switch {
	case hour >= 6 && hour < 12:
		temp, desc = 10+(h-6)*1.5, "맑음 (아침)"
	case hour >= 12 && hour < 18:
		temp, desc = 19+(h-12)*0.5, "맑음 (낮)"
	case hour >= 18:
		temp, desc = 22-(h-18)*2, "맑음 (저녁)"
	default:
		temp, desc = 10-h*0.5, "맑음 (새벽)"
	}
	return math.Round(temp*10) / 10, desc
}
