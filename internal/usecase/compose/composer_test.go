package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/analysis"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/location"
	"github.com/kailas-cloud/outing/internal/domain/mapdata"
	"github.com/kailas-cloud/outing/internal/domain/weather"
	"github.com/kailas-cloud/outing/internal/usecase/classify"
)

type fakeGenerator struct {
	text   string
	err    error
	prompt domain.Prompt
}

func (f *fakeGenerator) Generate(_ context.Context, p domain.Prompt) (string, error) {
	f.prompt = p
	return f.text, f.err
}

func fixture() (analysis.Analysis, weather.Report, []facility.Document) {
	a := analysis.Analysis{
		Type:     analysis.Ready,
		Location: location.Location{City: location.Seoul, District: "강남구"},
		Date:     location.DateTomorrow,
	}
	w := weather.Report{Status: weather.Clear, Description: "맑음", TemperatureC: 18, Location: "서울특별시 강남구"}
	var docs []facility.Document
	for _, n := range []string{"A놀이터", "B키즈카페", "C박물관", "D공원"} {
		docs = append(docs, facility.Document{
			Content: n + " 소개",
			Metadata: map[string]string{
				facility.FieldName:       n,
				facility.FieldCategory1:  "놀이",
				facility.FieldRegionCity: location.Seoul,
				facility.FieldRegionGu:   "강남구",
			},
		})
	}
	return a, w, docs
}

func TestTemplate(t *testing.T) {
	a, w, docs := fixture()
	got := Template(a, w, docs)

	lines := strings.Split(got, "\n")
	assert.Equal(t, "☀️ 강남구 날씨: 맑음, 18.0°C", lines[0])
	assert.Contains(t, got, "A놀이터 (놀이) · 서울특별시 강남구")
	assert.Contains(t, got, "C박물관")
	assert.NotContains(t, got, "D공원")
	assert.Contains(t, got, "총 4개")
	assert.Less(t, strings.Index(got, "A놀이터"), strings.Index(got, "B키즈카페"))
}

func TestTemplate_NoResultsAndBadWeather(t *testing.T) {
	a, w, _ := fixture()
	w.Status = weather.Rainy
	w.Description = "비"

	got := Template(a, w, nil)

	assert.True(t, strings.HasPrefix(got, "🌧️ 강남구 날씨: 비"))
	assert.Contains(t, got, "실내 활동")
	assert.Contains(t, got, NoFacilities)
}

func TestAnswer_UsesGenerator(t *testing.T) {
	a, w, docs := fixture()
	gen := &fakeGenerator{text: "생성된 답변"}

	got := New(gen, nil).Answer(context.Background(), "강남 놀이터", a, w, docs)

	assert.Equal(t, "생성된 답변", got)
	assert.Contains(t, gen.prompt.User, "질문: 강남 놀이터")
	assert.Contains(t, gen.prompt.User, "날짜: tomorrow")
	assert.Contains(t, gen.prompt.User, "4. D공원")
	assert.NotEmpty(t, gen.prompt.System)
}

func TestAnswer_GeneratorFailureFallsBackToTemplate(t *testing.T) {
	a, w, docs := fixture()
	gen := &fakeGenerator{err: errors.New("upstream 500")}

	got := New(gen, nil).Answer(context.Background(), "강남 놀이터", a, w, docs)

	assert.Equal(t, Template(a, w, docs), got)
}

func TestAnswer_NoGenerator(t *testing.T) {
	a, w, docs := fixture()
	assert.Equal(t, Template(a, w, docs), New(nil, nil).Answer(context.Background(), "q", a, w, docs))
}

func TestEmotion(t *testing.T) {
	c := New(nil, nil)
	assert.Equal(t, "천만에요! 😊 더 도움이 필요하시면 언제든 말씀해주세요!", c.Emotion(classify.GroupGratitude))
	assert.NotEqual(t, c.Emotion(classify.GroupGratitude), c.Emotion(classify.GroupPositive))
	assert.NotEmpty(t, c.Emotion(classify.GroupAcknowledgement))
	assert.Equal(t, c.Emotion(classify.GroupGratitude), c.Emotion("unknown"))
}

func TestMap(t *testing.T) {
	c := New(nil, nil)
	assert.Equal(t, MapNoLocations, c.Map(mapdata.MarkerSet{}))

	set := mapdata.MarkerSet{
		Markers: []mapdata.Marker{{Name: "A놀이터"}, {Name: "B키즈카페"}},
		Link:    "https://map.kakao.com/link/to/A놀이터,37.5,127",
	}
	got := c.Map(set)
	require.Contains(t, got, "2곳")
	assert.Contains(t, got, "• B키즈카페")
	assert.Contains(t, got, set.Link)
}
