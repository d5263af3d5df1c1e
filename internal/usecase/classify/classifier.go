// Package classify decides the intent class of a chat turn.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/outing/internal/domain/analysis"
	"github.com/kailas-cloud/outing/internal/domain/location"
	"github.com/kailas-cloud/outing/internal/domain/session"
)

const (
	// DefaultHistoryWindow is how many recent messages are scanned for a location.
	DefaultHistoryWindow = 5
	// emotionMaxRunes bounds how long an acknowledgement can be.
	emotionMaxRunes = 20
)

// Emotion keyword groups. The compose step picks a reply by group.
const (
	GroupGratitude       = "gratitude"
	GroupPositive        = "positive"
	GroupAcknowledgement = "acknowledgement"
)

type emotionKeyword struct {
	key   string
	group string
	// exact keywords must be a whole word ("네 그래요"), otherwise "있네" would match.
	exact bool
}

var emotionKeywords = []emotionKeyword{
	{"고마워", GroupGratitude, false},
	{"고맙", GroupGratitude, false},
	{"감사", GroupGratitude, false},
	{"thankyou", GroupGratitude, false},
	{"thanks", GroupGratitude, false},
	{"완벽", GroupPositive, false},
	{"최고", GroupPositive, false},
	{"멋져", GroupPositive, false},
	{"훌륭", GroupPositive, false},
	{"좋아", GroupPositive, false},
	{"great", GroupPositive, false},
	{"괜찮아", GroupAcknowledgement, false},
	{"알겠어", GroupAcknowledgement, false},
	{"okay", GroupAcknowledgement, false},
	{"ok", GroupAcknowledgement, true},
	{"네", GroupAcknowledgement, true},
	{"응", GroupAcknowledgement, true},
}

// actionKeywords mark a request even when the message is short and polite.
var actionKeywords = []string{
	"추천", "찾아", "알려", "검색", "어디", "가볼", "갈만", "놀만", "놀거리", "할만", "보여",
	"recommend", "find", "search", "show",
}

// mapKeywords ask for the previous results on a map. Plain "어디" is left out:
// "강남 어디 갈까" is a new search, not a map request.
var mapKeywords = []string{
	"지도", "위치", "찾아가", "가는법", "가는길", "길찾기", "어디에있", "map", "location",
}

// Classifier turns a query plus session state into an Analysis.
type Classifier struct {
	historyWindow int
}

// New creates a classifier. historyWindow <= 0 uses DefaultHistoryWindow.
func New(historyWindow int) *Classifier {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	return &Classifier{historyWindow: historyWindow}
}

// Classify applies the decision order: map, emotion, location resolution, need_location, ready.
// sess may be nil for a first-contact turn.
func (c *Classifier) Classify(query string, sess *session.Session) analysis.Analysis {
	compact := compact(query)

	mapAsked := containsAny(compact, mapKeywords)
	if mapAsked && sess.HasRetrieval() {
		return analysis.Analysis{Type: analysis.ShowMap}
	}

	if group, ok := emotionGroup(query, compact); ok {
		return analysis.Analysis{Type: analysis.Emotion, Emotion: group}
	}

	loc, source := c.resolveLocation(query, sess)
	// A map request names a new place or there is nothing to draw. A location
	// carried over from earlier turns must not turn "지도 보여줘" into a search.
	if loc.IsZero() || (mapAsked && source != analysis.SourceQuery) {
		return analysis.Analysis{
			Type:         analysis.NeedLocation,
			MapRequested: mapAsked,
			Nearby:       location.MentionsRelative(query),
		}
	}

	a := analysis.Analysis{Type: analysis.Ready, Location: loc, Source: source, MapRequested: mapAsked}
	if date, ok := location.ExtractDate(query); ok {
		a.Date = date
	}
	return a
}

// resolveLocation: query, then recent history (newest first), then the cached token.
// A relative phrase ("근처") never resolves on its own; the extractor has no entry for it.
func (c *Classifier) resolveLocation(query string, sess *session.Session) (location.Location, analysis.Source) {
	if loc, ok := location.Extract(query); ok {
		return loc, analysis.SourceQuery
	}
	if sess == nil {
		return location.Location{}, analysis.SourceNone
	}

	recent := sess.Recent(c.historyWindow)
	for i := len(recent) - 1; i >= 0; i-- {
		// Assistant replies list facilities from other regions; only the user states places.
		if recent[i].Role != session.RoleUser {
			continue
		}
		if loc, ok := location.Extract(recent[i].Content); ok {
			return loc, analysis.SourceHistory
		}
	}

	if cached := location.Parse(sess.CachedLocation); !cached.IsZero() {
		return cached, analysis.SourceCache
	}
	return location.Location{}, analysis.SourceNone
}

func emotionGroup(query, compact string) (string, bool) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) >= emotionMaxRunes {
		return "", false
	}
	if containsAny(compact, actionKeywords) {
		return "", false
	}
	words := words(query)
	for _, kw := range emotionKeywords {
		if kw.exact {
			if _, ok := words[kw.key]; ok {
				return kw.group, true
			}
			continue
		}
		if strings.Contains(compact, kw.key) {
			return kw.group, true
		}
	}
	return "", false
}

// words lowercases the query and splits it on whitespace, trimming
// punctuation around each word.
func words(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if w = strings.Trim(w, "!.,~?^"); w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}

// compact lowercases and drops whitespace so "thank you" and "가는 법" match their table forms.
func compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
