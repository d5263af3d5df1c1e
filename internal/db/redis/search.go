package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/outing/internal/db"
	"github.com/kailas-cloud/outing/internal/domain/search/filter"
)

const (
	scoreAlias         = "__vector_score"
	defaultVectorField = "vector"
)

// SearchKNN runs FT.SEARCH with a KNN clause, pre-filtered by TAG equality when
// q.Filters is non-empty. Entries come back nearest first.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	args, err := knnArgs(q)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, searchError(err)
	}
	return parseSearchReply(raw)
}

// SearchCount runs the query with LIMIT 0 0 and returns only the total.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0").Build()).ToArray()
	if err != nil {
		return 0, searchError(err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	n, err := raw[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("total: %w", err)}
	}
	return int(n), nil
}

func searchError(err error) error {
	if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
		return &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	return &db.Error{Op: db.OpSearch, Err: err}
}

// knnArgs renders everything after FT.SEARCH. DIALECT 2 is required for the
// KNN syntax and PARAMS.
func knnArgs(q *db.KNNQuery) ([]string, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("index name is required")
	case len(q.Vector) == 0:
		return nil, errors.New("query vector is required")
	case q.K <= 0:
		return nil, fmt.Errorf("k must be positive, got %d", q.K)
	}

	field := q.VectorField
	if field == "" {
		field = defaultVectorField
	}
	knn := fmt.Sprintf("[KNN %d @%s $BLOB AS %s]", q.K, field, scoreAlias)

	query := "*=>" + knn
	if pre := tagFilter(q.Filters); pre != "" {
		query = "(" + pre + ")=>" + knn
	}

	args := make([]string, 0, 16+len(q.ReturnFields))
	args = append(args, q.IndexName, query)
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1))
		args = append(args, q.ReturnFields...)
		args = append(args, scoreAlias)
	}
	args = append(args,
		"SORTBY", scoreAlias, "ASC",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", vectorBlob(q.Vector),
		"DIALECT", "2",
	)
	return args, nil
}

// tagFilter joins the equality conditions with spaces, which FT.SEARCH reads as AND.
func tagFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}
	var b strings.Builder
	for i, cond := range expr.Must() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("@" + cond.Key() + ":{" + escapeTag(cond.Match()) + "}")
	}
	return b.String()
}

// escapeTag backslash-escapes punctuation and spaces inside a TAG value.
// Hangul and other letters pass through untouched.
func escapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if r != '_' && (unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseSearchReply reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
// Malformed pairs are skipped rather than failing the whole search.
func parseSearchReply(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("total: %w", err)}
	}

	res := &db.SearchResult{Total: int(total), Entries: make([]db.SearchEntry, 0, (len(raw)-1)/2)}
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key, Fields: make(map[string]string, len(pairs)/2)}
		for j := 0; j+1 < len(pairs); j += 2 {
			name, nerr := pairs[j].ToString()
			val, verr := pairs[j+1].ToString()
			if nerr != nil || verr != nil {
				continue
			}
			if name == scoreAlias {
				entry.Distance, _ = strconv.ParseFloat(val, 64)
				continue
			}
			entry.Fields[name] = val
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

// vectorBlob packs the query as little-endian FLOAT32, the layout the index stores.
func vectorBlob(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return string(buf)
}
