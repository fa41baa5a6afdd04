package similarity

import (
	"math"
	"sort"

	"ai-chat-be/internal/entity"
)

// RankedTurn pairs a turn with its similarity score against the current
// prompt's embedding. Ephemeral, only used while budgeting subselects.
type RankedTurn struct {
	Turn  *entity.Turn
	Score float64
}

// Cosine computes cosine similarity between two vectors using the standard
// dot-product-over-norms formula. Returns ok=false when either vector is
// empty, zero-magnitude, or the dimensions disagree.
func Cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// Rank scores candidates against queryVec and returns them in descending
// score order. Candidates must be given newest-first: score ties keep that
// recency order, so output is deterministic under input reordering.
// Candidates without a usable embedding are dropped, never aborting the
// whole ranking.
func Rank(queryVec []float32, candidates []*entity.Turn) []RankedTurn {
	ranked := make([]RankedTurn, 0, len(candidates))
	for _, turn := range candidates {
		if len(turn.Embedding) == 0 {
			continue
		}
		score, ok := Cosine(queryVec, turn.Embedding)
		if !ok {
			continue
		}
		ranked = append(ranked, RankedTurn{Turn: turn, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}
