package classify

import (
	"testing"
	"time"

	"github.com/kailas-cloud/outing/internal/domain/analysis"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/location"
	"github.com/kailas-cloud/outing/internal/domain/session"
)

func newSession(msgs ...session.Message) *session.Session {
	s := session.New("c1", time.Unix(0, 0))
	s.Messages = append(s.Messages, msgs...)
	return s
}

func user(c string) session.Message      { return session.Message{Role: session.RoleUser, Content: c} }
func assistant(c string) session.Message { return session.Message{Role: session.RoleAssistant, Content: c} }

func TestClassify_ShowMap(t *testing.T) {
	c := New(0)
	s := newSession(user("강남 놀이터 추천"), assistant("세 곳을 찾았어요."))
	s.LastRetrieval = &session.Retrieval{Documents: []facility.Document{{ID: "f1"}}}

	for _, q := range []string{"지도로 보여줘", "거기 위치 알려줘", "가는 법 알려줘", "show me a map"} {
		if got := c.Classify(q, s); got.Type != analysis.ShowMap {
			t.Errorf("Classify(%q).Type = %q, want show_map", q, got.Type)
		}
	}
}

func TestClassify_MapWithoutRetrieval(t *testing.T) {
	c := New(0)
	got := c.Classify("지도 보여줘", newSession())
	if got.Type != analysis.NeedLocation || !got.MapRequested {
		t.Errorf("got %+v, want need_location with map requested", got)
	}
	got = c.Classify("강남 지도 보여줘", nil)
	if got.Type != analysis.Ready || got.Location.District != "강남구" {
		t.Errorf("got %+v, want ready for 강남구", got)
	}
}

func TestClassify_MapWithoutRetrieval_IgnoresCarriedLocation(t *testing.T) {
	c := New(0)

	s := newSession(user("강남 놀이터 찾아줘"), assistant("관련 시설을 찾지 못했어요."))
	got := c.Classify("지도 보여줘", s)
	if got.Type != analysis.NeedLocation || !got.MapRequested || got.HasLocation() {
		t.Errorf("history: got %+v, want need_location with map requested", got)
	}

	s = newSession()
	s.CachedLocation = "서울특별시 강남구"
	got = c.Classify("위치 알려줘", s)
	if got.Type != analysis.NeedLocation || !got.MapRequested || got.HasLocation() {
		t.Errorf("cache: got %+v, want need_location with map requested", got)
	}
}

func TestClassify_Emotion(t *testing.T) {
	tests := []struct {
		in    string
		group string
	}{
		{"고마워요!", GroupGratitude},
		{"정말 감사합니다", GroupGratitude},
		{"Thank you", GroupGratitude},
		{"최고예요", GroupPositive},
		{"좋아요 😊", GroupPositive},
		{"알겠어", GroupAcknowledgement},
		{"네!", GroupAcknowledgement},
		{"ok", GroupAcknowledgement},
		{"네 그래요", GroupAcknowledgement},
		{"응 그래", GroupAcknowledgement},
		{"OK, 좋네요", GroupAcknowledgement},
	}
	c := New(0)
	for _, tt := range tests {
		got := c.Classify(tt.in, nil)
		if got.Type != analysis.Emotion {
			t.Errorf("Classify(%q).Type = %q, want emotion", tt.in, got.Type)
			continue
		}
		if got.Emotion != tt.group {
			t.Errorf("Classify(%q).Emotion = %q, want %q", tt.in, got.Emotion, tt.group)
		}
	}
}

func TestClassify_EmotionNotMatched(t *testing.T) {
	c := New(0)
	tests := []string{
		"좋아 강남 놀이터 추천해줘",
		"고마워 근데 다른 곳도 찾아줘",
		"정말 감사합니다 덕분에 주말 계획을 잘 세울 수 있었어요",
		"있네",
		"저기 있네요",
		"book",
	}
	for _, q := range tests {
		if got := c.Classify(q, nil); got.Type == analysis.Emotion {
			t.Errorf("Classify(%q) = emotion, want non-emotion", q)
		}
	}
}

func TestClassify_LocationFromQuery(t *testing.T) {
	got := New(0).Classify("내일 강남 놀이터 추천해줘", nil)
	if got.Type != analysis.Ready {
		t.Fatalf("Type = %q, want ready", got.Type)
	}
	if got.Location != (location.Location{City: location.Seoul, District: "강남구"}) {
		t.Errorf("Location = %+v", got.Location)
	}
	if got.Source != analysis.SourceQuery {
		t.Errorf("Source = %q, want query", got.Source)
	}
	if got.Date != location.DateTomorrow {
		t.Errorf("Date = %q, want tomorrow", got.Date)
	}
}

func TestClassify_LocationFromHistory_NewestFirst(t *testing.T) {
	s := newSession(
		user("부산 박물관 추천"),
		assistant("좋은 곳을 찾았어요."),
		user("송파 키즈카페는?"),
		assistant("좋은 곳을 찾았어요."),
	)
	s.CachedLocation = "부산광역시"

	got := New(0).Classify("내일은 어때?", s)
	if got.Type != analysis.Ready {
		t.Fatalf("Type = %q, want ready", got.Type)
	}
	if got.Location.District != "송파구" || got.Source != analysis.SourceHistory {
		t.Errorf("got %+v, want 송파구 from history", got)
	}
}

func TestClassify_HistoryWindow(t *testing.T) {
	s := newSession(
		user("부산 박물관 추천"),
		assistant("좋은 곳을 찾았어요."),
		user("다른 곳은?"),
		assistant("좋은 곳을 찾았어요."),
	)
	s.CachedLocation = "서울특별시 마포구"

	got := New(2).Classify("또 있어?", s)
	if got.Source != analysis.SourceCache || got.Location.District != "마포구" {
		t.Errorf("got %+v, want cached 마포구", got)
	}

	got = New(4).Classify("또 있어?", s)
	if got.Source != analysis.SourceHistory || got.Location.City != location.Busan {
		t.Errorf("got %+v, want 부산 from history", got)
	}
}

func TestClassify_OnlyUserMessagesResolveLocation(t *testing.T) {
	s := newSession(
		session.Message{Role: session.RoleSystem, Content: "강남구 결과"},
		assistant("부산 해운대구 시설을 찾았어요."),
	)
	if got := New(0).Classify("또 있어?", s); got.Type != analysis.NeedLocation {
		t.Errorf("Type = %q, want need_location", got.Type)
	}
}

func TestClassify_RelativePhrase(t *testing.T) {
	c := New(0)

	got := c.Classify("근처 놀이터 추천해줘", nil)
	if got.Type != analysis.NeedLocation || got.HasLocation() || !got.Nearby {
		t.Errorf("got %+v, want nearby need_location without location", got)
	}

	s := newSession()
	s.CachedLocation = "서울특별시 강남구"
	got = c.Classify("근처 놀이터 추천해줘", s)
	if got.Type != analysis.Ready || got.Source != analysis.SourceCache {
		t.Errorf("got %+v, want ready from cache", got)
	}
}

func TestClassify_Invariants(t *testing.T) {
	c := New(0)
	s := newSession(user("안녕"))
	for _, q := range []string{"", "   ", "놀 곳 추천", "강남", "고마워", "주말에 어디 가지", "지도"} {
		got := c.Classify(q, s)
		switch got.Type {
		case analysis.Ready:
			if !got.HasLocation() {
				t.Errorf("Classify(%q): ready without location", q)
			}
		case analysis.NeedLocation:
			if got.HasLocation() {
				t.Errorf("Classify(%q): need_location with location %+v", q, got.Location)
			}
		}
	}
}
