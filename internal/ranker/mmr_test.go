package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contractqa/internal/domain"
)

func cand(idx int, score float64) domain.ScoredCandidate {
	return domain.ScoredCandidate{SegmentID: string(rune('a' + idx)), Index: idx, Score: score}
}

func ids(cs []domain.ScoredCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.SegmentID
	}
	return out
}

func TestTopN(t *testing.T) {
	scores := []domain.ScoredCandidate{cand(0, 0.2), cand(1, 0), cand(2, 0.9), cand(3, 0.2), cand(4, 0.5)}

	assert.Equal(t, []string{"c", "e", "a", "d"}, ids(TopN(scores, 0)))
	assert.Equal(t, []string{"c", "e"}, ids(TopN(scores, 2)))
	assert.Empty(t, TopN([]domain.ScoredCandidate{cand(0, 0)}, 3))
}

func TestSelect(t *testing.T) {
	// a and b are near duplicates, c is different
	sims := map[[2]int]float64{{0, 1}: 0.95, {0, 2}: 0.1, {1, 2}: 0.1}
	sim := func(i, j int) float64 {
		if i == j {
			return 1
		}
		if i > j {
			i, j = j, i
		}
		return sims[[2]int{i, j}]
	}
	cands := []domain.ScoredCandidate{cand(0, 0.9), cand(1, 0.85), cand(2, 0.6)}

	t.Run("diversity demotes near duplicate", func(t *testing.T) {
		assert.Equal(t, []string{"a", "c", "b"}, ids(Select(cands, 3, 0.5, sim)))
	})

	t.Run("lambda one is plain top-k", func(t *testing.T) {
		assert.Equal(t, ids(TopN(cands, 2)), ids(Select(cands, 2, 1.0, sim)))
		assert.Equal(t, []string{"a", "b", "c"}, ids(Select(cands, 3, 1.0, sim)))
	})

	t.Run("k larger than pool", func(t *testing.T) {
		got := Select(cands, 10, DefaultLambda, sim)
		assert.Len(t, got, 3)
	})

	t.Run("no duplicates", func(t *testing.T) {
		dup := append(append([]domain.ScoredCandidate{}, cands...), cand(0, 0.9))
		got := Select(dup, 5, DefaultLambda, sim)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, ids(got))
	})

	t.Run("ties go to lower corpus index", func(t *testing.T) {
		tied := []domain.ScoredCandidate{cand(3, 0.4), cand(1, 0.4)}
		assert.Equal(t, []string{"b", "d"}, ids(Select(tied, 2, DefaultLambda, nil)))
	})

	t.Run("zero scores and k<=0", func(t *testing.T) {
		assert.Empty(t, Select([]domain.ScoredCandidate{cand(0, 0)}, 3, DefaultLambda, sim))
		assert.Nil(t, Select(cands, 0, DefaultLambda, sim))
	})
}
