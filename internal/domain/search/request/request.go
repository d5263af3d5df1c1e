// Package request validates facility search parameters.
package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/outing/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in runes.
	MaxQueryLength = 1000
	DefaultTopK    = 5
	MaxTopK        = 50
)

// Request is a validated search query.
type Request struct {
	query   string
	filters filter.Expression
	topK    int
}

// New validates and normalizes search parameters. topK defaults to DefaultTopK.
func New(query string, filters filter.Expression, topK int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return Request{query: query, filters: filters, topK: topK}, nil
}

// Query returns the search query text.
func (r Request) Query() string { return r.query }

// Filters returns the pre-filter expression.
func (r Request) Filters() filter.Expression { return r.filters }

// TopK returns the number of documents to return.
func (r Request) TopK() int { return r.topK }
