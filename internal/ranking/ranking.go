// Package ranking fuses lexical and semantic scores and orders documents by the result.
package ranking

import "sort"

// Fusion weights. They are fixed; scores are fused raw, without normalisation.
const (
	LexicalWeight  = 0.6
	SemanticWeight = 0.4
)

// FuseScore combines one document's lexical and semantic scores.
func FuseScore(lexical, semantic float64) float64 {
	return LexicalWeight*lexical + SemanticWeight*semantic
}

// Fuse combines per-document score slices. A missing semantic entry counts as 0.
func Fuse(lexical, semantic []float64) []float64 {
	fused := make([]float64, len(lexical))
	for i, l := range lexical {
		s := 0.0
		if i < len(semantic) {
			s = semantic[i]
		}
		fused[i] = FuseScore(l, s)
	}
	return fused
}

// Rank returns document positions ordered by score, highest first, truncated to topK.
// Equal scores keep ascending position order. topK <= 0 yields an empty slice.
func Rank(scores []float64, topK int) []int {
	if topK <= 0 {
		return []int{}
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	if topK < len(order) {
		order = order[:topK]
	}
	return order
}
