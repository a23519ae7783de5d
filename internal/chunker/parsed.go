package chunker

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"contractqa/internal/domain"
)

type parsedItem struct {
	ID       json.RawMessage `json:"id"`
	Title    string          `json:"title"`
	Text     string          `json:"text"`
	Level    int             `json:"level"`
	FullText string          `json:"full_text"`
}

// LoadParsed reads a JSON array of parsed segments, or an object holding
// them under "items". Items carrying only full_text are skipped.
func LoadParsed(r io.Reader) (*domain.Corpus, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read parsed segments: %w", err)
	}
	var items []parsedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Items []parsedItem `json:"items"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decode parsed segments: %w", err)
		}
		items = wrapped.Items
	}

	segs := make([]domain.Segment, 0, len(items))
	for i, it := range items {
		text := normalizeSpace(it.Text)
		if text == "" {
			continue
		}
		id := parsedID(it.ID)
		if id == "" {
			id = fmt.Sprintf("seg_%d", i)
		}
		segs = append(segs, domain.Segment{
			ID:    id,
			Title: strings.TrimSpace(it.Title),
			Text:  text,
			Level: it.Level,
		})
	}
	if len(segs) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	return domain.NewCorpus(segs)
}

// parsedID accepts both string and numeric ids.
func parsedID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
