package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractqa/internal/domain"
)

func TestFrequencySummarizer(t *testing.T) {
	segs := []domain.Segment{
		{ID: "law", Text: "The agreement is governed by California law. Lunch is served at noon."},
		{ID: "pay", Text: "Payment under the agreement is due in thirty days. The agreement renews yearly."},
		{ID: "misc", Text: "Weather was pleasant."},
	}
	s := NewFrequencySummarizer()

	t.Run("picks frequent-term sentences in corpus order", func(t *testing.T) {
		ov, err := s.Summarize(segs, 2)
		require.NoError(t, err)
		assert.Contains(t, ov.Text, "agreement")
		assert.NotContains(t, ov.Text, "Weather")
		assert.NotEmpty(t, ov.Citations)
		for _, c := range ov.Citations {
			assert.Contains(t, []string{"law", "pay"}, c)
		}
	})

	t.Run("limit larger than sentences keeps everything", func(t *testing.T) {
		ov, err := s.Summarize(segs, 50)
		require.NoError(t, err)
		assert.Equal(t, []string{"law", "pay", "misc"}, ov.Citations)
		assert.Equal(t, "The agreement is governed by California law. Lunch is served at noon. "+
			"Payment under the agreement is due in thirty days. The agreement renews yearly. Weather was pleasant.", ov.Text)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := s.Summarize(nil, 3)
		assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
	})
}
