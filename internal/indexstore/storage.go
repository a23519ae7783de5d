// Package indexstore persists a built index together with its corpus.
package indexstore

import (
	"fmt"
	"time"

	"contractqa/internal/domain"
	"contractqa/internal/embedding/tfidf"
)

const (
	// EngineTFIDF identifies bundles holding a tfidf snapshot.
	EngineTFIDF = "tfidf"
	// FormatVersion is bumped whenever the bundle layout changes.
	FormatVersion = 1
)

// Meta describes a persisted bundle.
type Meta struct {
	Engine        string    `json:"engine"`
	FormatVersion int       `json:"format_version"`
	DocumentID    string    `json:"document_id"`
	Fingerprint   string    `json:"fingerprint"`
	Count         int       `json:"count"`
	BuiltAt       time.Time `json:"built_at"`
}

// Bundle is everything needed to answer questions without rebuilding.
type Bundle struct {
	Meta     Meta             `json:"meta"`
	Segments []domain.Segment `json:"segments"`
	Index    tfidf.Snapshot   `json:"index"`
}

// Storage saves and loads bundles at a location, typically a file path.
type Storage interface {
	Name() string
	Save(b Bundle, location string) error
	Load(location string) (Bundle, error)
	Exists(location string) bool
}

// NewBundle captures ix and its corpus for persistence.
func NewBundle(documentID string, ix *tfidf.Index, builtAt time.Time) Bundle {
	corpus := ix.Corpus()
	return Bundle{
		Meta: Meta{
			Engine:        EngineTFIDF,
			FormatVersion: FormatVersion,
			DocumentID:    documentID,
			Fingerprint:   corpus.Fingerprint(),
			Count:         corpus.Len(),
			BuiltAt:       builtAt.UTC(),
		},
		Segments: corpus.Segments(),
		Index:    ix.Snapshot(),
	}
}

// Validate checks the structural invariants of a loaded bundle.
func Validate(b Bundle) error {
	if b.Meta.Engine != EngineTFIDF {
		return fmt.Errorf("%w: unsupported engine %q", domain.ErrCorruptIndex, b.Meta.Engine)
	}
	if b.Meta.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: unsupported format version %d", domain.ErrCorruptIndex, b.Meta.FormatVersion)
	}
	if len(b.Index.Rows) != len(b.Segments) {
		return fmt.Errorf("%w: %d index rows for %d segments", domain.ErrCorruptIndex, len(b.Index.Rows), len(b.Segments))
	}
	if b.Meta.Count != len(b.Segments) {
		return fmt.Errorf("%w: meta count %d for %d segments", domain.ErrCorruptIndex, b.Meta.Count, len(b.Segments))
	}
	return nil
}

// Restore validates b and rebuilds its corpus and index.
func Restore(b Bundle) (*tfidf.Index, *domain.Corpus, error) {
	if err := Validate(b); err != nil {
		return nil, nil, err
	}
	corpus, err := domain.NewCorpus(b.Segments)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrCorruptIndex, err)
	}
	if b.Meta.Fingerprint != "" && b.Meta.Fingerprint != corpus.Fingerprint() {
		return nil, nil, fmt.Errorf("%w: fingerprint mismatch", domain.ErrCorruptIndex)
	}
	ix, err := tfidf.Restore(b.Index, corpus)
	if err != nil {
		return nil, nil, err
	}
	return ix, corpus, nil
}
