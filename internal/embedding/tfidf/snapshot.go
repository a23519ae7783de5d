package tfidf

import (
	"fmt"

	"contractqa/internal/domain"
)

// SparseRow is the serialized form of one segment vector.
type SparseRow struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Snapshot is a serializable copy of a built index, without its corpus.
type Snapshot struct {
	Options Options     `json:"options"`
	Terms   []string    `json:"terms"`
	IDF     []float64   `json:"idf"`
	Rows    []SparseRow `json:"rows"`
}

// Snapshot copies the model state for persistence.
func (ix *Index) Snapshot() Snapshot {
	snap := Snapshot{
		Options: ix.opts,
		Terms:   append([]string(nil), ix.terms...),
		IDF:     append([]float64(nil), ix.idf...),
		Rows:    make([]SparseRow, len(ix.rows)),
	}
	for i, r := range ix.rows {
		snap.Rows[i] = SparseRow{
			Indices: append([]int(nil), r.indices...),
			Values:  append([]float64(nil), r.values...),
		}
	}
	return snap
}

// Restore rebuilds an index from a snapshot and the corpus it was taken from.
// Any structural mismatch yields domain.ErrCorruptIndex.
func Restore(snap Snapshot, corpus *domain.Corpus) (*Index, error) {
	if corpus == nil {
		return nil, fmt.Errorf("%w: missing corpus", domain.ErrCorruptIndex)
	}
	if len(snap.Rows) != corpus.Len() {
		return nil, fmt.Errorf("%w: %d rows for %d segments", domain.ErrCorruptIndex, len(snap.Rows), corpus.Len())
	}
	if len(snap.Terms) != len(snap.IDF) {
		return nil, fmt.Errorf("%w: %d terms but %d idf weights", domain.ErrCorruptIndex, len(snap.Terms), len(snap.IDF))
	}

	ix := &Index{
		opts:   snap.Options.normalized(),
		corpus: corpus,
		vocab:  make(map[string]int, len(snap.Terms)),
		terms:  append([]string(nil), snap.Terms...),
		idf:    append([]float64(nil), snap.IDF...),
		rows:   make([]sparseRow, len(snap.Rows)),
	}
	for i, term := range ix.terms {
		if _, dup := ix.vocab[term]; dup {
			return nil, fmt.Errorf("%w: duplicate term %q", domain.ErrCorruptIndex, term)
		}
		ix.vocab[term] = i
	}
	for i, r := range snap.Rows {
		if len(r.Indices) != len(r.Values) {
			return nil, fmt.Errorf("%w: row %d has %d indices and %d values", domain.ErrCorruptIndex, i, len(r.Indices), len(r.Values))
		}
		prev := -1
		for _, idx := range r.Indices {
			if idx <= prev || idx >= len(ix.terms) {
				return nil, fmt.Errorf("%w: row %d has invalid dimension %d", domain.ErrCorruptIndex, i, idx)
			}
			prev = idx
		}
		ix.rows[i] = sparseRow{
			indices: append([]int(nil), r.Indices...),
			values:  append([]float64(nil), r.Values...),
		}
	}
	return ix, nil
}
