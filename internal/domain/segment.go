package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Segment is a titled chunk of a document's analysis text, the unit of retrieval.
type Segment struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
	Level int    `json:"level,omitempty"`
}

// Corpus is the ordered, immutable sequence of segments for one document.
// Segment ids are unique and insertion order is the stable tie-break.
type Corpus struct {
	segments []Segment
	byID     map[string]int
}

// NewCorpus validates segs and returns a corpus that owns a copy of them.
func NewCorpus(segs []Segment) (*Corpus, error) {
	if len(segs) == 0 {
		return nil, ErrEmptyCorpus
	}
	c := &Corpus{
		segments: make([]Segment, len(segs)),
		byID:     make(map[string]int, len(segs)),
	}
	for i, s := range segs {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("segment %d: missing id", i)
		}
		if strings.TrimSpace(s.Text) == "" {
			return nil, fmt.Errorf("segment %q: empty text", s.ID)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSegment, s.ID)
		}
		c.byID[s.ID] = i
		c.segments[i] = s
	}
	return c, nil
}

// Len returns the number of segments.
func (c *Corpus) Len() int { return len(c.segments) }

// At returns the segment at position i.
func (c *Corpus) At(i int) Segment { return c.segments[i] }

// Segments returns a copy of the ordered segments.
func (c *Corpus) Segments() []Segment {
	out := make([]Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

// Texts returns segment bodies in corpus order.
func (c *Corpus) Texts() []string {
	out := make([]string, len(c.segments))
	for i, s := range c.segments {
		out[i] = s.Text
	}
	return out
}

// IndexOf returns the corpus position of id, or -1.
func (c *Corpus) IndexOf(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// Lookup returns the segment with the given id.
func (c *Corpus) Lookup(id string) (Segment, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Segment{}, false
	}
	return c.segments[i], true
}

// Fingerprint identifies the corpus content. Any change to ids, titles,
// bodies or order changes the fingerprint.
func (c *Corpus) Fingerprint() string {
	h := sha256.New()
	for _, s := range c.segments {
		h.Write([]byte(s.ID))
		h.Write([]byte{0})
		h.Write([]byte(s.Title))
		h.Write([]byte{0})
		h.Write([]byte(s.Text))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
