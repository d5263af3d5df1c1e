package chat

import (
	"context"
	"sync"

	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/location"
	"github.com/kailas-cloud/outing/internal/domain/search/request"
	"github.com/kailas-cloud/outing/internal/domain/session"
	"github.com/kailas-cloud/outing/internal/domain/weather"
	sessionrepo "github.com/kailas-cloud/outing/internal/repository/session"
	"github.com/kailas-cloud/outing/internal/usecase/classify"
	"github.com/kailas-cloud/outing/internal/usecase/compose"
)

type fakeSearch struct {
	mu       sync.Mutex
	docs     []facility.Document
	panicMsg string
	requests []request.Request
}

func (f *fakeSearch) Search(_ context.Context, req request.Request) []facility.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.docs
}

func (f *fakeSearch) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type weatherCall struct {
	loc  location.Location
	date string
}

type fakeWeather struct {
	mu     sync.Mutex
	report weather.Report
	lookup []weatherCall
}

func (f *fakeWeather) Lookup(_ context.Context, loc location.Location, date string) weather.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookup = append(f.lookup, weatherCall{loc: loc, date: date})
	r := f.report
	r.Location = loc.String()
	return r
}

func (f *fakeWeather) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lookup)
}

// failingStore wraps a memory store and injects errors.
type failingStore struct {
	*sessionrepo.MemoryStore
	getErr  error
	saveErr error
}

func (f *failingStore) Get(ctx context.Context, id string) (*session.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryStore.Get(ctx, id)
}

func (f *failingStore) Save(ctx context.Context, s *session.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, s)
}

type fixture struct {
	svc     *Service
	store   *failingStore
	search  *fakeSearch
	weather *fakeWeather
}

func newFixture(docs ...facility.Document) *fixture {
	f := &fixture{
		store:   &failingStore{MemoryStore: sessionrepo.NewMemory(100, 0)},
		search:  &fakeSearch{docs: docs},
		weather: &fakeWeather{report: weather.Report{Status: weather.Clear, Description: "맑음", TemperatureC: 18}},
	}
	f.svc = New(f.store, classify.New(0), f.search, f.weather, compose.New(nil, nil), Config{TopK: 5}, nil)
	return f
}

func playground(name string, lat, lng float64) facility.Document {
	d := facility.Document{
		ID:      "id-" + name,
		Content: name + " 소개",
		Metadata: map[string]string{
			facility.FieldName:       name,
			facility.FieldCategory1:  "놀이",
			facility.FieldRegionCity: location.Seoul,
			facility.FieldRegionGu:   "강남구",
		},
		Similarity: 0.8,
	}
	if lat != 0 {
		d.Numerics = map[string]float64{"lat": lat, "lng": lng}
	}
	return d
}
