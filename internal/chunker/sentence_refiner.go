package chunker

import (
	"fmt"
	"strings"

	"contractqa/internal/domain"
)

// SentenceRefiner splits every segment of a corpus into sentence groups with overlap.
type SentenceRefiner struct {
	sentencesPerSegment int
	overlapSentences    int
}

// NewSentenceRefiner returns a refiner; non-positive group sizes default to one sentence.
func NewSentenceRefiner(sentencesPerSegment, overlapSentences int) *SentenceRefiner {
	if sentencesPerSegment <= 0 {
		sentencesPerSegment = 1
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerSegment {
		overlapSentences = sentencesPerSegment - 1
	}
	return &SentenceRefiner{
		sentencesPerSegment: sentencesPerSegment,
		overlapSentences:    overlapSentences,
	}
}

// Refine returns a new corpus whose segments are sentence groups of the input.
// Ids take the form <parent>_s000 and titles are carried from the parent.
func (r *SentenceRefiner) Refine(corpus *domain.Corpus) (*domain.Corpus, error) {
	var out []domain.Segment
	for _, seg := range corpus.Segments() {
		sentences := SplitSentences(seg.Text)
		if len(sentences) == 0 {
			continue
		}
		idx := 0
		i := 0
		for i < len(sentences) {
			end := i + r.sentencesPerSegment
			if end > len(sentences) {
				end = len(sentences)
			}
			out = append(out, domain.Segment{
				ID:    fmt.Sprintf("%s_s%03d", seg.ID, idx),
				Title: seg.Title,
				Text:  strings.Join(sentences[i:end], " "),
				Level: seg.Level,
			})
			if end == len(sentences) {
				break
			}
			i = end - r.overlapSentences
			idx++
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	return domain.NewCorpus(out)
}
