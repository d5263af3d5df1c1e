package db

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// FieldKind is an FT schema field type. Facility records are stored as hashes.
type FieldKind string

const (
	FieldTag     FieldKind = "TAG"
	FieldText    FieldKind = "TEXT"
	FieldNumeric FieldKind = "NUMERIC"
	FieldVector  FieldKind = "VECTOR"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the indexing algorithm for vector fields.
type VectorAlgorithm string

const (
	VectorHNSW VectorAlgorithm = "HNSW"
	VectorFlat VectorAlgorithm = "FLAT"
)

// tagSeparator keeps values containing commas ("키즈카페, 2호점") a single tag.
const tagSeparator = "|"

// VectorSpec configures a FLOAT32 vector field. M and EFConstruction apply to HNSW only;
// zero leaves the server default.
type VectorSpec struct {
	Algorithm      VectorAlgorithm
	Dim            int
	Distance       DistanceMetric
	M              int
	EFConstruction int
}

// IndexField is one schema entry. Vector is set only for FieldVector.
type IndexField struct {
	Name   string
	Kind   FieldKind
	Vector *VectorSpec
}

// IndexDefinition is a complete FT.CREATE definition over hash keys.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// NewIndex starts a definition. Chain field adders, then call Build.
func NewIndex(name string, prefixes ...string) *IndexDefinition {
	return &IndexDefinition{Name: name, Prefixes: prefixes}
}

// Tags adds TAG fields.
func (idx *IndexDefinition) Tags(names ...string) *IndexDefinition {
	return idx.add(FieldTag, names)
}

// Text adds TEXT fields.
func (idx *IndexDefinition) Text(names ...string) *IndexDefinition {
	return idx.add(FieldText, names)
}

// Numeric adds NUMERIC fields.
func (idx *IndexDefinition) Numeric(names ...string) *IndexDefinition {
	return idx.add(FieldNumeric, names)
}

// Vector adds a vector field.
func (idx *IndexDefinition) Vector(name string, spec VectorSpec) *IndexDefinition {
	idx.Fields = append(idx.Fields, IndexField{Name: name, Kind: FieldVector, Vector: &spec})
	return idx
}

func (idx *IndexDefinition) add(kind FieldKind, names []string) *IndexDefinition {
	for _, n := range names {
		idx.Fields = append(idx.Fields, IndexField{Name: n, Kind: kind})
	}
	return idx
}

// Without returns a copy of the definition minus fields of the given kinds.
func (idx *IndexDefinition) Without(kinds ...FieldKind) *IndexDefinition {
	out := &IndexDefinition{Name: idx.Name, Prefixes: idx.Prefixes}
	for _, f := range idx.Fields {
		if !slices.Contains(kinds, f.Kind) {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}

// Build validates the definition and returns it.
func (idx *IndexDefinition) Build() (*IndexDefinition, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Validate checks that the definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i, f := range idx.Fields {
		if f.Name == "" {
			return fmt.Errorf("field name is required at index %d", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Kind {
		case FieldTag, FieldText, FieldNumeric:
		case FieldVector:
			if f.Vector == nil || f.Vector.Dim <= 0 {
				return fmt.Errorf("vector field %s requires positive DIM", f.Name)
			}
		default:
			return fmt.Errorf("field %s has unknown kind %q", f.Name, f.Kind)
		}
	}
	return nil
}

// Args renders the FT.CREATE arguments that follow the command name.
func (idx *IndexDefinition) Args() ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}

	args := []string{idx.Name, "ON", "HASH"}
	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for _, f := range idx.Fields {
		args = append(args, f.Name, string(f.Kind))
		switch f.Kind {
		case FieldTag:
			args = append(args, "SEPARATOR", tagSeparator)
		case FieldVector:
			args = append(args, vectorArgs(f.Vector)...)
		}
	}
	return args, nil
}

func vectorArgs(v *VectorSpec) []string {
	algo := v.Algorithm
	if algo == "" {
		algo = VectorHNSW
	}
	distance := v.Distance
	if distance == "" {
		distance = DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if algo == VectorHNSW {
		if v.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(v.M))
		}
		if v.EFConstruction > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(v.EFConstruction))
		}
	}

	out := make([]string, 0, 2+len(attrs))
	out = append(out, string(algo), strconv.Itoa(len(attrs)))
	return append(out, attrs...)
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
