package domain

// IndexConfig describes the facility vector index. Not exposed to clients.
type IndexConfig struct {
	Name             string
	Prefix           string
	Dimensions       int
	DistanceMetric   string
	Algorithm        string
	QueryInstruction string
}

// DefaultIndexConfig matches the ingested facility corpus (3584-dim, cosine, HNSW).
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		Name:             "idx:facilities",
		Prefix:           KeyPrefix + "facility:",
		Dimensions:       3584,
		DistanceMetric:   "COSINE",
		Algorithm:        "HNSW",
		QueryInstruction: "",
	}
}
