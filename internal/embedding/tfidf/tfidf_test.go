package tfidf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractqa/internal/domain"
)

func testCorpus(t *testing.T) *domain.Corpus {
	t.Helper()
	c, err := domain.NewCorpus([]domain.Segment{
		{ID: "law", Title: "Governing law clause", Text: "This Agreement is governed by the laws of California."},
		{ID: "pay", Title: "Payment terms", Text: "Invoices are payable net 30 days after receipt."},
		{ID: "fm", Title: "Force majeure", Text: "Neither party is liable for force-majeure events such as floods."},
		{ID: "term", Title: "Termination", Text: "Either party may terminate on thirty days prior written notice."},
	})
	require.NoError(t, err)
	return c
}

func TestAnalyze(t *testing.T) {
	opts := DefaultOptions()

	t.Run("ngrams over stopword-filtered stream", func(t *testing.T) {
		got := analyze("The Laws of California", opts)
		assert.Equal(t, []string{"laws", "california", "laws california"}, got)
	})

	t.Run("hyphenated compound kept with split parts", func(t *testing.T) {
		got := analyze("force-majeure event", Options{MaxN: 2})
		assert.Equal(t, []string{"force", "majeure", "event", "force majeure", "majeure event", "force-majeure"}, got)
	})

	t.Run("single characters dropped", func(t *testing.T) {
		assert.Equal(t, []string{"30"}, analyze("a 30 b", Options{MaxN: 1}))
	})

	t.Run("stopwords optional", func(t *testing.T) {
		assert.Equal(t, []string{"the", "law"}, analyze("the law", Options{MaxN: 1}))
	})
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(nil, DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)

	onlyStop, err := domain.NewCorpus([]domain.Segment{{ID: "x", Text: "the of a"}})
	require.NoError(t, err)
	_, err = Build(onlyStop, DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
}

func TestScore(t *testing.T) {
	ix, err := Build(testCorpus(t), DefaultOptions())
	require.NoError(t, err)

	scores := ix.Score("governed by the laws of California")
	require.Len(t, scores, 4)
	for i, s := range scores {
		assert.Equal(t, i, s.Index)
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
	}
	assert.Equal(t, "law", scores[0].SegmentID)
	assert.Greater(t, scores[0].Score, 0.5)
	assert.Equal(t, 0.0, scores[1].Score)

	t.Run("no shared vocabulary scores zero everywhere", func(t *testing.T) {
		for _, s := range ix.Score("zebra xylophone") {
			assert.Equal(t, 0.0, s.Score)
		}
		assert.Len(t, ix.Score(""), 4)
	})

	t.Run("compound term retrievable both ways", func(t *testing.T) {
		assert.Greater(t, ix.Score("force-majeure")[2].Score, 0.0)
		assert.Greater(t, ix.Score("force majeure")[2].Score, 0.0)
	})

	t.Run("identical text scores one", func(t *testing.T) {
		s := ix.Score(testCorpus(t).At(1).Text)[1].Score
		assert.InDelta(t, 1.0, s, 1e-9)
	})
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build(testCorpus(t), DefaultOptions())
	require.NoError(t, err)
	b, err := Build(testCorpus(t), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, a.Snapshot(), b.Snapshot())
	for _, q := range []string{"payment", "notice of termination", "floods", "california law"} {
		assert.Equal(t, a.Score(q), b.Score(q), q)
	}
}

func TestBuild_SmoothedIDFAndSublinear(t *testing.T) {
	c, err := domain.NewCorpus([]domain.Segment{
		{ID: "a", Text: "fee fee fee"},
		{ID: "b", Text: "fee deposit"},
	})
	require.NoError(t, err)
	ix, err := Build(c, Options{MaxN: 1, Sublinear: true})
	require.NoError(t, err)

	snap := ix.Snapshot()
	assert.Equal(t, []string{"deposit", "fee"}, snap.Terms)
	assert.InDelta(t, math.Log(3.0/2.0)+1, snap.IDF[0], 1e-12)
	assert.InDelta(t, 1.0, snap.IDF[1], 1e-12)
	// single term row normalizes to one regardless of count
	assert.Equal(t, []int{1}, snap.Rows[0].Indices)
	assert.InDelta(t, 1.0, snap.Rows[0].Values[0], 1e-12)
}

func TestBuild_VocabularyCap(t *testing.T) {
	c, err := domain.NewCorpus([]domain.Segment{
		{ID: "a", Text: "rent rent rent deposit"},
		{ID: "b", Text: "rent deposit lease"},
	})
	require.NoError(t, err)
	ix, err := Build(c, Options{MaxN: 1, MaxFeatures: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, ix.VocabularySize())
	assert.Equal(t, []string{"deposit", "rent"}, ix.Snapshot().Terms)
	assert.Equal(t, 0.0, ix.Score("lease")[1].Score)
}

func TestSimilarity(t *testing.T) {
	ix, err := Build(testCorpus(t), DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ix.Similarity(0, 0), 1e-9)
	assert.Equal(t, ix.Similarity(1, 3), ix.Similarity(3, 1))
	assert.Equal(t, 0.0, ix.Similarity(0, 1))
	assert.Equal(t, 0.0, ix.Similarity(-1, 9))
}

func TestSnapshotRestore(t *testing.T) {
	corpus := testCorpus(t)
	ix, err := Build(corpus, DefaultOptions())
	require.NoError(t, err)

	restored, err := Restore(ix.Snapshot(), corpus)
	require.NoError(t, err)
	for _, q := range []string{"governing law", "payment net 30", "force majeure", "terminate notice", "liability"} {
		assert.Equal(t, ix.Score(q), restored.Score(q), q)
	}

	t.Run("row count mismatch", func(t *testing.T) {
		snap := ix.Snapshot()
		snap.Rows = snap.Rows[:2]
		_, err := Restore(snap, corpus)
		assert.ErrorIs(t, err, domain.ErrCorruptIndex)
	})

	t.Run("dimension out of range", func(t *testing.T) {
		snap := ix.Snapshot()
		snap.Rows[0] = SparseRow{Indices: []int{len(snap.Terms)}, Values: []float64{1}}
		_, err := Restore(snap, corpus)
		assert.ErrorIs(t, err, domain.ErrCorruptIndex)
	})

	t.Run("idf length mismatch", func(t *testing.T) {
		snap := ix.Snapshot()
		snap.IDF = snap.IDF[1:]
		_, err := Restore(snap, corpus)
		assert.ErrorIs(t, err, domain.ErrCorruptIndex)
	})
}
