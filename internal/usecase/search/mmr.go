package search

import (
	"math"

	"github.com/kailas-cloud/outing/internal/domain/facility"
)

// selectMMR greedily picks k documents maximizing
// lambda*relevance - (1-lambda)*max similarity to already picked ones.
// Falls back to truncation when any candidate lacks a vector.
func selectMMR(docs []facility.Document, k int, lambda float64) []facility.Document {
	if len(docs) <= k {
		return truncate(docs, k)
	}
	for _, d := range docs {
		if len(d.Vector) == 0 {
			return truncate(docs, k)
		}
	}

	picked := make([]facility.Document, 0, k)
	used := make([]bool, len(docs))
	for len(picked) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, d := range docs {
			if used[i] {
				continue
			}
			var maxSim float64
			for _, p := range picked {
				if s := cosine(d.Vector, p.Vector); s > maxSim {
					maxSim = s
				}
			}
			score := lambda*d.Score() - (1-lambda)*maxSim
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		picked = append(picked, docs[best])
	}
	return picked
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
