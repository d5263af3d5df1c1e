// Package facility adapts the FT vector index to facility documents.
package facility

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/outing/internal/db"
	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/search/filter"
)

const (
	contentField = "content"
	vectorField  = "vector"
)

// store is the consumer interface for index operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements usecase/search.Repository over a single facility index.
type Repo struct {
	store store
	cfg   domain.IndexConfig
}

// New creates a facility repository.
func New(s store, cfg domain.IndexConfig) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// IndexName returns the FT index the repository queries.
func (r *Repo) IndexName() string {
	return r.cfg.Name
}

// Search returns the k nearest facilities under the conjunctive filter, nearest first.
// Vectors are only fetched when includeVectors is set (MMR needs them).
func (r *Repo) Search(
	ctx context.Context, vector []float32, filters filter.Expression, k int, includeVectors bool,
) ([]facility.Document, error) {
	q := &db.KNNQuery{
		IndexName:   r.cfg.Name,
		VectorField: vectorField,
		Filters:     filters,
		Vector:      vector,
		K:           k,
	}
	if !includeVectors {
		q.ReturnFields = returnFields
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.cfg.Name, err)
	}
	return r.parseResults(sr), nil
}

// Count returns the number of indexed facilities.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.cfg.Name, "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.cfg.Name, err)
	}
	return n, nil
}

// EnsureIndex creates the facility index when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.cfg.Name)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := r.Definition()
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Definition builds the FT.CREATE schema for the facility corpus.
func (r *Repo) Definition() (*db.IndexDefinition, error) {
	algo := db.VectorHNSW
	if strings.EqualFold(r.cfg.Algorithm, string(db.VectorFlat)) {
		algo = db.VectorFlat
	}
	b := db.NewIndex(r.cfg.Name, r.cfg.Prefix).
		Tags(
			facility.FieldName, facility.FieldCategory1, facility.FieldCategory2,
			facility.FieldRegionCity, facility.FieldRegionGu, facility.FieldInOut,
		).
		Text(contentField).
		Numeric("lat", "lng").
		Vector(vectorField, db.VectorSpec{
			Algorithm:      algo,
			Dim:            r.cfg.Dimensions,
			Distance:       db.DistanceMetric(strings.ToUpper(r.cfg.DistanceMetric)),
			M:              16,
			EFConstruction: 200,
		})

	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build index definition: %w", err)
	}
	return def, nil
}

var returnFields = func() []string {
	fields := []string{
		contentField,
		facility.FieldName, facility.FieldNameLegacy,
		facility.FieldCategory1, facility.FieldCategory2,
		facility.FieldRegionCity, facility.FieldRegionGu,
		facility.FieldInOut, facility.FieldPrice, facility.FieldAge,
		facility.FieldHours, facility.FieldAddress,
	}
	fields = append(fields, facility.LatitudeKeys...)
	return append(fields, facility.LongitudeKeys...)
}()

func (r *Repo) parseResults(sr *db.SearchResult) []facility.Document {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	docs := make([]facility.Document, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		doc, ok := parseEntry(strings.TrimPrefix(entry.Key, r.cfg.Prefix), entry)
		if !ok {
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// parseEntry maps flat hash fields to a document. Entries with no content are dropped.
func parseEntry(id string, entry db.SearchEntry) (facility.Document, bool) {
	doc := facility.Document{
		ID:         id,
		Metadata:   make(map[string]string, len(entry.Fields)),
		Distance:   entry.Distance,
		Similarity: Similarity(entry.Distance),
	}

	for k, v := range entry.Fields {
		switch {
		case k == contentField:
			doc.Content = v
		case k == vectorField:
			doc.Vector = bytesToVector(v)
		case isCoordinate(k):
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				if doc.Numerics == nil {
					doc.Numerics = make(map[string]float64, 2)
				}
				doc.Numerics[k] = f
			} else {
				doc.Metadata[k] = v
			}
		default:
			doc.Metadata[k] = v
		}
	}

	if strings.TrimSpace(doc.Content) == "" {
		return facility.Document{}, false
	}
	return doc, true
}

// Similarity converts cosine distance to similarity in [0, 1], rounded to 4 places.
func Similarity(distance float64) float64 {
	s := math.Max(0, 1-distance)
	return math.Round(s*1e4) / 1e4
}

func isCoordinate(k string) bool {
	for _, keys := range [][]string{facility.LatitudeKeys, facility.LongitudeKeys} {
		for _, c := range keys {
			if c == k {
				return true
			}
		}
	}
	return false
}

// bytesToVector deserializes a binary string to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
