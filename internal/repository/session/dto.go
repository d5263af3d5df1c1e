package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/outing/internal/domain/facility"
	domsession "github.com/kailas-cloud/outing/internal/domain/session"
)

const recordVersion = 1

// record is the JSON blob stored per session key.
type record struct {
	Version        int              `json:"v"`
	ID             string           `json:"id"`
	Messages       []messageRow     `json:"messages"`
	CachedLocation string           `json:"cached_location,omitempty"`
	LastRetrieval  *retrievalRecord `json:"last_retrieval,omitempty"`
	CreatedAt      int64            `json:"created_at"`
	UpdatedAt      int64            `json:"updated_at"`
}

type messageRow struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type retrievalRecord struct {
	Query     string              `json:"query"`
	Location  string              `json:"location"`
	Documents []facility.Document `json:"documents"`
	At        int64               `json:"at"`
}

func marshalSession(s *domsession.Session) ([]byte, error) {
	rec := record{
		Version:        recordVersion,
		ID:             s.ID,
		Messages:       make([]messageRow, len(s.Messages)),
		CachedLocation: s.CachedLocation,
		CreatedAt:      s.CreatedAt.UnixMilli(),
		UpdatedAt:      s.UpdatedAt.UnixMilli(),
	}
	for i, m := range s.Messages {
		rec.Messages[i] = messageRow{Role: string(m.Role), Content: m.Content}
	}
	if r := s.LastRetrieval; r != nil {
		rec.LastRetrieval = &retrievalRecord{
			Query:     r.Query,
			Location:  r.Location,
			Documents: r.Documents,
			At:        r.At.UnixMilli(),
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

func unmarshalSession(data []byte) (*domsession.Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("unsupported session record version %d", rec.Version)
	}

	s := &domsession.Session{
		ID:             rec.ID,
		Messages:       make([]domsession.Message, len(rec.Messages)),
		CachedLocation: rec.CachedLocation,
		CreatedAt:      time.UnixMilli(rec.CreatedAt),
		UpdatedAt:      time.UnixMilli(rec.UpdatedAt),
	}
	for i, m := range rec.Messages {
		s.Messages[i] = domsession.Message{Role: domsession.Role(m.Role), Content: m.Content}
	}
	if r := rec.LastRetrieval; r != nil {
		s.LastRetrieval = &domsession.Retrieval{
			Query:     r.Query,
			Location:  r.Location,
			Documents: r.Documents,
			At:        time.UnixMilli(r.At),
		}
	}
	return s, nil
}
