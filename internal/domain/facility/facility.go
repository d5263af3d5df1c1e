// Package facility defines the retrievable venue/activity record.
package facility

import "strings"

// Metadata field names as stored in the facility index.
const (
	FieldName       = "facility_name"
	FieldNameLegacy = "Name"
	FieldCategory1  = "category1"
	FieldCategory2  = "category2"
	FieldRegionCity = "region_city"
	FieldRegionGu   = "region_gu"
	FieldInOut      = "in_out"
	FieldPrice      = "price"
	FieldAge        = "age"
	FieldHours      = "hours"
	FieldAddress    = "address"
)

// Document is one facility hit. Metadata holds string fields (TAG/TEXT in the index),
// Numerics holds numeric fields such as coordinates.
type Document struct {
	ID         string             `json:"id"`
	Content    string             `json:"content"`
	Metadata   map[string]string  `json:"metadata,omitempty"`
	Numerics   map[string]float64 `json:"numerics,omitempty"`
	Distance   float64            `json:"distance"`
	Similarity float64            `json:"similarity"`
	Relevance  *float64           `json:"relevance,omitempty"`
	Vector     []float32          `json:"-"`
}

// Name returns the facility name, or "" when the document has none.
func (d Document) Name() string {
	if n := strings.TrimSpace(d.Metadata[FieldName]); n != "" {
		return n
	}
	return strings.TrimSpace(d.Metadata[FieldNameLegacy])
}

// rawName is Name without trimming, used as the dedup key.
func (d Document) rawName() string {
	if n := d.Metadata[FieldName]; strings.TrimSpace(n) != "" {
		return n
	}
	return d.Metadata[FieldNameLegacy]
}

// Category returns the most specific category available.
func (d Document) Category() string {
	if c := d.Metadata[FieldCategory2]; c != "" {
		return c
	}
	return d.Metadata[FieldCategory1]
}

// Region returns "city district" as stored on the document.
func (d Document) Region() string {
	return strings.TrimSpace(d.Metadata[FieldRegionCity] + " " + d.Metadata[FieldRegionGu])
}

// Score is the rerank relevance when present, else the retrieval similarity.
func (d Document) Score() float64 {
	if d.Relevance != nil {
		return *d.Relevance
	}
	return d.Similarity
}

// Summary strips the vector and content down to what a later map turn needs.
func (d Document) Summary() Document {
	meta := make(map[string]string, len(summaryFields))
	for _, f := range summaryFields {
		if v, ok := d.Metadata[f]; ok {
			meta[f] = v
		}
	}
	for k, v := range d.Metadata {
		if isCoordinateKey(k) {
			meta[k] = v
		}
	}
	var nums map[string]float64
	if len(d.Numerics) > 0 {
		nums = make(map[string]float64, len(d.Numerics))
		for k, v := range d.Numerics {
			nums[k] = v
		}
	}
	return Document{
		ID:         d.ID,
		Content:    truncateRunes(d.Content, 200),
		Metadata:   meta,
		Numerics:   nums,
		Similarity: d.Similarity,
		Relevance:  d.Relevance,
	}
}

// Dedup drops documents without a name and repeats of an already seen name,
// keeping the first occurrence. Names are compared exactly as stored, so
// "서울숲" and "서울숲 " are different facilities.
func Dedup(docs []Document) []Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		name := d.rawName()
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, d)
	}
	return out
}

var summaryFields = []string{
	FieldName, FieldNameLegacy, FieldCategory1, FieldCategory2,
	FieldRegionCity, FieldRegionGu, FieldInOut, FieldPrice, FieldAddress,
}

// Accepted latitude and longitude field aliases, most common first.
var (
	LatitudeKeys  = []string{"lat", "latitude", "Latitude", "LAT", "위도", "y", "mapy"}
	LongitudeKeys = []string{"lng", "lon", "longitude", "Longitude", "LNG", "경도", "x", "mapx"}
)

func isCoordinateKey(k string) bool {
	for _, keys := range [][]string{LatitudeKeys, LongitudeKeys} {
		for _, c := range keys {
			if c == k {
				return true
			}
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
