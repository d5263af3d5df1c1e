// Package analysis holds the per-turn query classification result.
package analysis

import "github.com/kailas-cloud/outing/internal/domain/location"

// Type is the turn's intent class.
type Type string

const (
	Emotion      Type = "emotion"
	NeedLocation Type = "need_location"
	Ready        Type = "ready"
	ShowMap      Type = "show_map"
)

// Source records where the location came from.
type Source string

const (
	SourceNone    Source = ""
	SourceQuery   Source = "query"
	SourceHistory Source = "history"
	SourceCache   Source = "cache"
)

// Analysis is ephemeral: built by the classifier, consumed by the orchestrator.
type Analysis struct {
	Type     Type
	Location location.Location
	Source   Source
	Date     string
	// Emotion is the matched keyword group for Emotion turns.
	Emotion string
	// MapRequested is set when the query asked for a map but there was nothing to show.
	MapRequested bool
	// Nearby marks a NeedLocation turn that said "근처" or "여기" instead of a place.
	Nearby bool
}

// HasLocation reports whether a location resolved.
func (a Analysis) HasLocation() bool { return !a.Location.IsZero() }

// HasDate reports whether a date token was extracted.
func (a Analysis) HasDate() bool { return a.Date != "" }
