package extract

import (
	"strings"

	"contractqa/internal/chunker"
	"contractqa/internal/domain"
)

// maxAnswerChars bounds the sentence returned around a match.
const maxAnswerChars = 700

// Extractor runs the pattern catalogue over ranked candidates.
type Extractor struct {
	families []Family
	byName   map[string]int
}

// NewExtractor returns an extractor with the built-in catalogue.
func NewExtractor() *Extractor {
	fams := catalogue()
	e := &Extractor{families: fams, byName: make(map[string]int, len(fams))}
	for i, f := range fams {
		e.byName[f.Name] = i
	}
	return e
}

// Families returns the catalogue in declaration order.
func (e *Extractor) Families() []Family {
	return append([]Family(nil), e.families...)
}

// Plan lists the family names tried for intent, in order.
func (e *Extractor) Plan(intent Intent) []string {
	return append([]string(nil), intentFamilies[intent]...)
}

type hit struct {
	value string
	span  string
	cand  domain.ScoredCandidate
}

// TryExtract returns an extractive answer when the first family of the intent
// that matches anything yields exactly one distinct value. Conflicting values
// or no match at all return nil.
func (e *Extractor) TryExtract(cands []domain.ScoredCandidate, intent Intent) *domain.Answer {
	if len(cands) == 0 {
		return nil
	}
	for _, name := range intentFamilies[intent] {
		idx, ok := e.byName[name]
		if !ok {
			continue
		}
		hits := scan(e.families[idx], cands)
		if len(hits) == 0 {
			continue
		}
		first := hits[0]
		var citations []string
		seen := make(map[string]struct{})
		for _, h := range hits {
			if h.value != first.value {
				return nil
			}
			if _, dup := seen[h.cand.SegmentID]; dup {
				continue
			}
			seen[h.cand.SegmentID] = struct{}{}
			citations = append(citations, h.cand.SegmentID)
		}
		return &domain.Answer{
			Text:      sentenceAround(first.cand.Text, first.span),
			Citations: citations,
			Mode:      domain.ModeExtractive,
		}
	}
	return nil
}

// scan matches every pattern of f against each candidate separately so that
// each match keeps the segment it came from.
func scan(f Family, cands []domain.ScoredCandidate) []hit {
	var hits []hit
	for _, c := range cands {
		for _, re := range f.Patterns {
			vi := re.SubexpIndex("value")
			for _, m := range re.FindAllStringSubmatchIndex(c.Text, -1) {
				if vi < 0 || m[2*vi] < 0 {
					continue
				}
				v := f.Normalize(c.Text[m[2*vi]:m[2*vi+1]])
				if v == "" {
					continue
				}
				hits = append(hits, hit{value: v, span: c.Text[m[0]:m[1]], cand: c})
			}
		}
	}
	return hits
}

// sentenceAround returns the sentence of text containing span, or span itself
// when no single sentence holds it.
func sentenceAround(text, span string) string {
	span = strings.Join(strings.Fields(span), " ")
	for _, s := range chunker.SplitSentences(text) {
		if strings.Contains(s, span) {
			return truncate(s)
		}
	}
	return truncate(span)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxAnswerChars {
		return s
	}
	return string(r[:maxAnswerChars]) + "…"
}
