package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"contractqa/internal/chunker"
	"contractqa/internal/domain"
)

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

var _ domain.Summarizer = (*FrequencySummarizer)(nil)

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

type sentence struct {
	text      string
	segmentID string
	tokens    []string
}

// Summarize picks the maxSentences highest scoring sentences across all
// segments, keeps them in corpus order and cites the segments they came from.
func (s *FrequencySummarizer) Summarize(segments []domain.Segment, maxSentences int) (domain.Overview, error) {
	if len(segments) == 0 {
		return domain.Overview{}, domain.ErrEmptyCorpus
	}
	if maxSentences <= 0 {
		maxSentences = 5
	}
	var sentences []sentence
	for _, seg := range segments {
		for _, text := range chunker.SplitSentences(seg.Text) {
			sentences = append(sentences, sentence{text: text, segmentID: seg.ID, tokens: s.tokens(text)})
		}
	}
	if len(sentences) == 0 {
		return domain.Overview{}, domain.ErrEmptyCorpus
	}

	// Compute word frequencies
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range sent.tokens {
			freq[tok]++
		}
	}
	// Normalize frequencies
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		sscore := 0.0
		for _, tok := range sent.tokens {
			sscore += freq[tok]
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(sent.tokens)); l > 0 {
			sscore /= math.Sqrt(l)
		}
		scores[i] = pair{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	// Keep original order among selected
	selected := make([]int, maxSentences)
	for i := 0; i < maxSentences; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)

	var (
		out       []string
		citations []string
		seen      = map[string]struct{}{}
	)
	for _, idx := range selected {
		sent := sentences[idx]
		out = append(out, sent.text)
		if _, ok := seen[sent.segmentID]; !ok {
			seen[sent.segmentID] = struct{}{}
			citations = append(citations, sent.segmentID)
		}
	}
	return domain.Overview{Text: strings.Join(out, " "), Citations: citations}, nil
}

func (s *FrequencySummarizer) tokens(text string) []string {
	raw := s.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"shall", "may", "any", "all", "each", "other", "its", "their",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
