package service

import (
	"math"
	"sort"

	"github.com/vedu111/gorechitee/models"
)

// DefaultTopK is how many semantic chunks feed the explanation prompt
const DefaultTopK = 5

// CosineSimilarity returns the normalized dot product of a and b.
// Mismatched lengths or a zero-magnitude vector yield -Inf so the pair ranks last.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.Inf(-1)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return math.Inf(-1)
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return math.Inf(-1)
	}
	return sim
}

// RankChunks scores every chunk against query and returns the best k, highest first.
// Equal scores keep corpus order.
func RankChunks(query []float32, chunks []models.SemanticChunk, k int) []models.ScoredChunk {
	if k <= 0 {
		k = DefaultTopK
	}

	scored := make([]models.ScoredChunk, len(chunks))
	for i, chunk := range chunks {
		scored[i] = models.ScoredChunk{
			SemanticChunk: chunk,
			Similarity:    CosineSimilarity(query, chunk.Embedding),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
