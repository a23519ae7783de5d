package tfidf

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"contractqa/internal/domain"
)

// DefaultMaxFeatures caps the vocabulary when no limit is configured.
const DefaultMaxFeatures = 120000

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’\-][\p{L}\p{N}]+)*`)

// Options controls tokenization and weighting.
type Options struct {
	MaxN        int  `json:"max_n" yaml:"max_n"`
	MaxFeatures int  `json:"max_features" yaml:"max_features"`
	Sublinear   bool `json:"sublinear" yaml:"sublinear"`
	Stopwords   bool `json:"stopwords" yaml:"stopwords"`
}

// DefaultOptions returns 1-3 word n-grams, log-dampened TF and English stopwords.
func DefaultOptions() Options {
	return Options{MaxN: 3, MaxFeatures: DefaultMaxFeatures, Sublinear: true, Stopwords: true}
}

func (o Options) normalized() Options {
	if o.MaxN <= 0 {
		o.MaxN = 1
	}
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = DefaultMaxFeatures
	}
	return o
}

type sparseRow struct {
	indices []int
	values  []float64
}

// Index is an immutable TF-IDF model over one corpus. Every row is unit length,
// so cosine similarity is a plain dot product.
type Index struct {
	opts   Options
	corpus *domain.Corpus
	vocab  map[string]int
	terms  []string
	idf    []float64
	rows   []sparseRow
}

// Build fits the vocabulary and weights for corpus.
func Build(corpus *domain.Corpus, opts Options) (*Index, error) {
	if corpus == nil || corpus.Len() == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	opts = opts.normalized()

	counts := make([]map[string]int, corpus.Len())
	df := make(map[string]int)
	freq := make(map[string]int)
	for i, text := range corpus.Texts() {
		c := make(map[string]int)
		for _, term := range analyze(text, opts) {
			c[term]++
		}
		for term, n := range c {
			df[term]++
			freq[term] += n
		}
		counts[i] = c
	}
	if len(df) == 0 {
		return nil, fmt.Errorf("%w: no indexable terms", domain.ErrEmptyCorpus)
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) > opts.MaxFeatures {
		sort.Slice(terms, func(a, b int) bool {
			if freq[terms[a]] != freq[terms[b]] {
				return freq[terms[a]] > freq[terms[b]]
			}
			return terms[a] < terms[b]
		})
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)

	ix := &Index{
		opts:   opts,
		corpus: corpus,
		vocab:  make(map[string]int, len(terms)),
		terms:  terms,
		idf:    make([]float64, len(terms)),
		rows:   make([]sparseRow, corpus.Len()),
	}
	n := float64(corpus.Len())
	for i, term := range terms {
		ix.vocab[term] = i
		ix.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	for i, c := range counts {
		ix.rows[i] = ix.weigh(c)
	}
	return ix, nil
}

// weigh turns raw term counts into a sorted, L2-normalized sparse row.
func (ix *Index) weigh(counts map[string]int) sparseRow {
	indices := make([]int, 0, len(counts))
	for term := range counts {
		if idx, ok := ix.vocab[term]; ok {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)
	values := make([]float64, len(indices))
	norm := 0.0
	for k, idx := range indices {
		tf := float64(counts[ix.terms[idx]])
		if ix.opts.Sublinear {
			tf = 1 + math.Log(tf)
		}
		values[k] = tf * ix.idf[idx]
		norm += values[k] * values[k]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for k := range values {
			values[k] /= norm
		}
	}
	return sparseRow{indices: indices, values: values}
}

// Score returns one candidate per segment, in corpus order. Segments sharing
// no vocabulary with the query score exactly zero.
func (ix *Index) Score(query string) []domain.ScoredCandidate {
	counts := make(map[string]int)
	for _, term := range analyze(query, ix.opts) {
		counts[term]++
	}
	q := ix.weigh(counts)
	qv := make(map[int]float64, len(q.indices))
	for k, idx := range q.indices {
		qv[idx] = q.values[k]
	}

	out := make([]domain.ScoredCandidate, len(ix.rows))
	for i, row := range ix.rows {
		s := 0.0
		if len(qv) > 0 {
			for k, idx := range row.indices {
				if w, ok := qv[idx]; ok {
					s += w * row.values[k]
				}
			}
		}
		seg := ix.corpus.At(i)
		out[i] = domain.ScoredCandidate{
			SegmentID: seg.ID,
			Index:     i,
			Score:     clamp(s),
			Text:      seg.Text,
		}
	}
	return out
}

// Similarity is the cosine similarity between segments i and j.
func (ix *Index) Similarity(i, j int) float64 {
	if i < 0 || j < 0 || i >= len(ix.rows) || j >= len(ix.rows) {
		return 0
	}
	a, b := ix.rows[i], ix.rows[j]
	s := 0.0
	for x, y := 0, 0; x < len(a.indices) && y < len(b.indices); {
		switch {
		case a.indices[x] == b.indices[y]:
			s += a.values[x] * b.values[y]
			x++
			y++
		case a.indices[x] < b.indices[y]:
			x++
		default:
			y++
		}
	}
	return clamp(s)
}

// Len is the number of rows, equal to the corpus size.
func (ix *Index) Len() int { return len(ix.rows) }

// VocabularySize is the number of distinct n-grams kept.
func (ix *Index) VocabularySize() int { return len(ix.terms) }

// Corpus returns the corpus the index was built from.
func (ix *Index) Corpus() *domain.Corpus { return ix.corpus }

// Options returns the options the index was built with.
func (ix *Index) Options() Options { return ix.opts }

// Terms tokenizes text with the index's n-gram scheme.
func (ix *Index) Terms(text string) []string { return analyze(text, ix.opts) }

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// analyze lower-cases text and emits word n-grams. Hyphenated words are split
// for n-gram building and the joined form is added as an extra unigram.
func analyze(text string, opts Options) []string {
	opts = opts.normalized()
	var (
		stream    []string
		compounds []string
	)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if !strings.Contains(tok, "-") {
			if keep(tok, opts) {
				stream = append(stream, tok)
			}
			continue
		}
		if keep(tok, opts) {
			compounds = append(compounds, tok)
		}
		for _, part := range strings.Split(tok, "-") {
			if keep(part, opts) {
				stream = append(stream, part)
			}
		}
	}

	out := make([]string, 0, len(stream)*opts.MaxN+len(compounds))
	for n := 1; n <= opts.MaxN; n++ {
		for i := 0; i+n <= len(stream); i++ {
			if n == 1 {
				out = append(out, stream[i])
				continue
			}
			out = append(out, strings.Join(stream[i:i+n], " "))
		}
	}
	return append(out, compounds...)
}

func keep(tok string, opts Options) bool {
	if utf8.RuneCountInString(tok) < 2 {
		return false
	}
	if opts.Stopwords {
		if _, stop := stopwords[tok]; stop {
			return false
		}
	}
	return true
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "which", "who", "whom", "how", "where", "does", "do", "did", "its", "there", "here", "has", "have", "had",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
