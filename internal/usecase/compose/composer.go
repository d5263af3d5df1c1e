// Package compose renders the assistant's reply text.
package compose

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/analysis"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/mapdata"
	"github.com/kailas-cloud/outing/internal/domain/weather"
	"github.com/kailas-cloud/outing/internal/logger"
	"github.com/kailas-cloud/outing/internal/usecase/classify"
)

// Fixed replies.
const (
	AskLocation    = "어느 지역을 생각하고 계신가요? 🗺️ (서울, 부산, 대구 등)"
	AskNearby      = "현재 위치는 알 수 없어요. 어느 동네 근처인지 알려주시면 찾아볼게요! 📍 (예: 강남역, 판교, 해운대)"
	Apology        = "죄송합니다. 일시적인 오류가 발생했습니다. 다시 시도해주세요. 🙏"
	MapNoResults   = "아직 지도에 표시할 시설이 없어요. 먼저 지역과 함께 가고 싶은 곳을 물어봐 주세요! 🗺️"
	MapNoLocations = "추천드린 시설의 위치 정보를 찾지 못해 지도를 보여드릴 수 없어요. 시설 이름으로 검색해 보시겠어요?"
	NoFacilities   = "관련 시설을 찾지 못했어요. 다른 키워드나 지역으로 다시 물어봐 주세요."
)

var emotionReplies = map[string]string{
	classify.GroupGratitude:       "천만에요! 😊 더 도움이 필요하시면 언제든 말씀해주세요!",
	classify.GroupPositive:        "마음에 드셨다니 다행이에요! 😄 아이와 즐거운 시간 보내세요!",
	classify.GroupAcknowledgement: "네! 😊 다른 지역이나 활동이 궁금하시면 언제든 물어봐 주세요.",
}

// topFacilities is how many facilities the template lists.
const topFacilities = 3

const systemPrompt = `당신은 아이와 함께할 수 있는 활동을 추천하는 친절한 챗봇입니다.
주어진 날씨와 시설 정보만 사용해서 답변하세요. 없는 시설을 지어내지 마세요.
비나 눈이 오면 실내 시설을 먼저 추천하세요.
이모지(🎨, 🏃, 📍)를 적당히 쓰고, 마지막에 추가 질문을 유도하세요.`

// Composer builds reply text. A nil generator means template-only.
type Composer struct {
	gen    domain.Generator
	logger *zap.Logger
}

// New creates a composer.
func New(gen domain.Generator, l *zap.Logger) *Composer {
	if l == nil {
		l = zap.NewNop()
	}
	return &Composer{gen: gen, logger: l}
}

// Emotion returns the canned reply for an emotion keyword group.
func (c *Composer) Emotion(group string) string {
	if r, ok := emotionReplies[group]; ok {
		return r
	}
	return emotionReplies[classify.GroupGratitude]
}

// Map describes a marker set, or explains why there is none.
func (c *Composer) Map(set mapdata.MarkerSet) string {
	if set.IsEmpty() {
		return MapNoLocations
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📍 추천드린 시설 %d곳을 지도에 표시했어요.\n", len(set.Markers))
	for _, m := range set.Markers {
		fmt.Fprintf(&b, "• %s\n", m.Name)
	}
	if set.Link != "" {
		fmt.Fprintf(&b, "길찾기: %s", set.Link)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Answer composes the RUN_TOOLS reply. With a generator it asks the model first and falls
// back to the template when generation fails.
func (c *Composer) Answer(
	ctx context.Context, query string, a analysis.Analysis, w weather.Report, docs []facility.Document,
) string {
	if c.gen == nil {
		return Template(a, w, docs)
	}

	text, err := c.gen.Generate(ctx, domain.Prompt{
		System: systemPrompt,
		User:   userPrompt(query, a, w, docs),
	})
	if err != nil {
		logger.FromContextOr(ctx, c.logger).Warn("Answer generation failed, using template",
			zap.Error(err),
		)
		return Template(a, w, docs)
	}
	return text
}

// Template is the deterministic reply: weather line first, then up to three facilities.
func Template(a analysis.Analysis, w weather.Report, docs []facility.Document) string {
	var b strings.Builder
	b.WriteString(weatherLine(a, w))
	b.WriteString("\n")
	if w.IsOutdoorFriendly() {
		b.WriteString("야외 활동하기 좋은 날씨예요!\n")
	} else {
		b.WriteString("궂은 날씨라 실내 활동을 추천드려요.\n")
	}
	b.WriteString("\n")

	if len(docs) == 0 {
		b.WriteString(NoFacilities)
		return b.String()
	}

	b.WriteString("🎯 추천 시설:\n")
	for i, d := range docs {
		if i == topFacilities {
			break
		}
		b.WriteString("• ")
		b.WriteString(describe(d))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n총 %d개의 관련 시설을 찾았어요. 위치가 궁금하시면 \"지도 보여줘\"라고 말씀해주세요! 🗺️", len(docs))
	return b.String()
}

func weatherLine(a analysis.Analysis, w weather.Report) string {
	label := a.Location.Label()
	if label == "" {
		label = w.Location
	}
	return fmt.Sprintf("%s %s 날씨: %s, %.1f°C", w.Emoji(), label, w.Description, w.TemperatureC)
}

func describe(d facility.Document) string {
	parts := []string{d.Name()}
	if c := d.Category(); c != "" {
		parts[0] += " (" + c + ")"
	}
	if r := d.Region(); r != "" {
		parts = append(parts, r)
	}
	if p := d.Metadata[facility.FieldInOut]; p != "" {
		parts = append(parts, p)
	}
	if p := d.Metadata[facility.FieldPrice]; p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, " · ")
}

func userPrompt(query string, a analysis.Analysis, w weather.Report, docs []facility.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "질문: %s\n", query)
	fmt.Fprintf(&b, "지역: %s\n", a.Location.String())
	if a.HasDate() {
		fmt.Fprintf(&b, "날짜: %s\n", a.Date)
	}
	fmt.Fprintf(&b, "날씨: %s, %.1f°C, 강수확률 %.0f%%\n", w.Description, w.TemperatureC, w.Rainfall)
	b.WriteString("시설:\n")
	if len(docs) == 0 {
		b.WriteString("(검색 결과 없음)\n")
	}
	for i, d := range docs {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, describe(d), d.Content)
	}
	return b.String()
}
