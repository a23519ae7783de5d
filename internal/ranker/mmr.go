// Package ranker narrows scored segments to a relevant and diverse subset.
package ranker

import (
	"math"
	"sort"

	"contractqa/internal/domain"
)

// DefaultLambda weighs relevance over diversity.
const DefaultLambda = 0.6

// SimilarityFunc returns the similarity of the segments at corpus indices i and j.
type SimilarityFunc func(i, j int) float64

// TopN keeps candidates with a positive score, sorted by score descending and
// then by corpus index. n <= 0 keeps all of them.
func TopN(scores []domain.ScoredCandidate, n int) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, 0, len(scores))
	for _, s := range scores {
		if s.Score > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Index < out[b].Index
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Select applies Maximal Marginal Relevance to cands and returns at most k
// of them in selection order. Non-positive candidates are ignored, lambda is
// clamped to [0,1] and a nil sim disables the diversity term.
func Select(cands []domain.ScoredCandidate, k int, lambda float64, sim SimilarityFunc) []domain.ScoredCandidate {
	if k <= 0 {
		return nil
	}
	lambda = math.Max(0, math.Min(1, lambda))
	pool := TopN(cands, 0)
	// one entry per segment
	seen := make(map[int]struct{}, len(pool))
	remaining := pool[:0]
	for _, c := range pool {
		if _, dup := seen[c.Index]; dup {
			continue
		}
		seen[c.Index] = struct{}{}
		remaining = append(remaining, c)
	}

	selected := make([]domain.ScoredCandidate, 0, min(k, len(remaining)))
	for len(selected) < k && len(remaining) > 0 {
		best := -1
		bestScore := math.Inf(-1)
		for i, c := range remaining {
			redundancy := 0.0
			if sim != nil {
				for _, s := range selected {
					redundancy = math.Max(redundancy, sim(c.Index, s.Index))
				}
			}
			mmr := lambda*c.Score - (1-lambda)*redundancy
			if mmr > bestScore || (mmr == bestScore && c.Index < remaining[best].Index) {
				best, bestScore = i, mmr
			}
		}
		selected = append(selected, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return selected
}
