package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"contractqa/internal/domain"
)

// DefaultMinChars is the body length under which a section is merged with a neighbour.
const DefaultMinChars = 80

var (
	markdownHeadingRe = regexp.MustCompile(`^\s{0,3}(#{1,6})\s+(.+?)\s*#*\s*$`)
	numberedHeadingRe = regexp.MustCompile(`^\s*((?i:article|section|clause|schedule|annex)\s+[0-9IVXLCivxlc]+(?:\.\d+)*[.:]?|\d+(?:\.\d+)*[.)]?)\s+(\S.*)$`)
	labelHeadingRe    = regexp.MustCompile(`^\s*([A-Z][^:.;]{1,60}):\s*$`)
	delimiterRe       = regexp.MustCompile(`^\s*(?:-{3,}|={3,}|\*{3,}|_{3,})\s*$`)
)

// SectionSegmenter splits analysis text on headings and delimiter lines.
type SectionSegmenter struct {
	minChars int
}

// NewSectionSegmenter returns a segmenter; minChars <= 0 disables merging.
func NewSectionSegmenter(minChars int) *SectionSegmenter {
	if minChars < 0 {
		minChars = 0
	}
	return &SectionSegmenter{minChars: minChars}
}

type section struct {
	title string
	level int
	body  []string
	// inline marks numbered, label and ALL-CAPS headings, which may carry content.
	inline bool
}

func (s section) text() string { return normalizeSpace(strings.Join(s.body, " ")) }

// Segment implements domain.Segmenter.
func (c *SectionSegmenter) Segment(raw string) (*domain.Corpus, error) {
	sections := c.split(raw)
	merged := c.merge(sections)
	if len(merged) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	segs := make([]domain.Segment, len(merged))
	for i, s := range merged {
		segs[i] = domain.Segment{
			ID:    fmt.Sprintf("seg_%d", i),
			Title: s.title,
			Text:  s.text(),
			Level: s.level,
		}
	}
	return domain.NewCorpus(segs)
}

func (c *SectionSegmenter) split(raw string) []section {
	var (
		out          []section
		cur          section
		pendingTitle string
		pendingLevel int
	)
	flush := func() {
		if cur.text() == "" && cur.inline {
			cur.body = []string{cur.title}
		}
		if cur.text() == "" {
			// A markdown heading without a body lends its title to the next section.
			if cur.title != "" {
				pendingTitle = joinTitles(pendingTitle, cur.title)
				pendingLevel = cur.level
			}
			cur = section{}
			return
		}
		if pendingTitle != "" {
			cur.title = joinTitles(pendingTitle, cur.title)
			if cur.level == 0 {
				cur.level = pendingLevel
			}
			pendingTitle, pendingLevel = "", 0
		}
		out = append(out, cur)
		cur = section{}
	}

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if delimiterRe.MatchString(line) {
			flush()
			continue
		}
		if title, level, inline, ok := headingOf(line); ok {
			flush()
			cur = section{title: title, level: level, inline: inline}
			continue
		}
		if strings.TrimSpace(line) != "" {
			cur.body = append(cur.body, line)
		}
	}
	flush()
	return out
}

// merge folds sections shorter than minChars into the following section, or
// into the preceding one when the short section is last.
func (c *SectionSegmenter) merge(sections []section) []section {
	if c.minChars == 0 {
		return sections
	}
	var (
		out   []section
		carry *section
	)
	for _, s := range sections {
		if carry != nil {
			s = section{
				title: firstNonEmpty(carry.title, s.title),
				level: carry.level,
				body:  append(append([]string{}, carry.body...), s.body...),
			}
			carry = nil
		}
		if len(s.text()) < c.minChars {
			held := s
			carry = &held
			continue
		}
		out = append(out, s)
	}
	if carry != nil {
		if len(out) == 0 {
			return []section{*carry}
		}
		last := &out[len(out)-1]
		last.body = append(last.body, carry.body...)
	}
	return out
}

// headingOf reports the title and level of a heading line. inline is false
// only for markdown headings.
func headingOf(line string) (title string, level int, inline, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > 100 {
		return "", 0, false, false
	}
	if m := markdownHeadingRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[2]), len(m[1]), false, true
	}
	if m := numberedHeadingRe.FindStringSubmatch(line); m != nil {
		rest := strings.TrimSpace(m[2])
		if looksLikeTitle(rest) {
			return trimmed, strings.Count(strings.TrimRight(m[1], ".)"), ".") + 1, true, true
		}
		return "", 0, false, false
	}
	if m := labelHeadingRe.FindStringSubmatch(line); m != nil && len(strings.Fields(m[1])) <= 6 {
		return strings.TrimSpace(m[1]), 0, true, true
	}
	if isAllCaps(trimmed) && !looksLikeFact(trimmed) {
		return trimmed, 0, true, true
	}
	return "", 0, false, false
}

// looksLikeTitle rejects numbered list items that are really sentences or
// "Label: value" facts.
func looksLikeTitle(s string) bool {
	words := len(strings.Fields(s))
	if words == 0 || words > 8 {
		return false
	}
	if looksLikeFact(s) {
		return false
	}
	if strings.HasSuffix(s, ",") || strings.HasSuffix(s, ";") {
		return false
	}
	r := []rune(s)[0]
	return unicode.IsUpper(r) || unicode.IsDigit(r)
}

// looksLikeFact reports a colon followed by content, or a multi-word line
// closed by sentence punctuation.
func looksLikeFact(s string) bool {
	if i := strings.Index(s, ":"); i >= 0 && strings.TrimSpace(s[i+1:]) != "" {
		return true
	}
	if len(strings.Fields(s)) < 2 {
		return false
	}
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

func isAllCaps(s string) bool {
	if len(strings.Fields(s)) > 10 {
		return false
	}
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 3
}

func joinTitles(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " > " + b
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
