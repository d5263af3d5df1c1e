// Package mode names the diversity-selection strategy applied after rerank.
package mode

// Diversity is the final selection strategy.
type Diversity string

const (
	// Truncate keeps the first topK of the best-available ranking.
	Truncate Diversity = "truncate"
	// MMR greedily trades relevance against similarity to already picked documents.
	MMR Diversity = "mmr"
)

// IsValid checks if the mode is one of the supported values.
func (d Diversity) IsValid() bool {
	return d == Truncate || d == MMR
}

// OrDefault returns Truncate for an empty value.
func (d Diversity) OrDefault() Diversity {
	if d == "" {
		return Truncate
	}
	return d
}
