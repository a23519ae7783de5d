package chunker

import (
	"strings"
	"unicode"
)

// SplitSentences splits text after '.', '!' or '?' when the terminator is
// followed by whitespace and then an upper-case letter, a digit or '['.
// Abbreviations such as "e.g. the" therefore stay in one sentence.
func SplitSentences(text string) []string {
	text = normalizeSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+2 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		next := runes[i+2]
		if !unicode.IsUpper(next) && !unicode.IsDigit(next) && next != '[' && next != '(' && next != '"' {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
