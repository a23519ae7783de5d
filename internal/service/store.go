package service

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"contractqa/internal/domain"
	"contractqa/internal/indexstore"
	"contractqa/internal/logger"
)

var errNoStore = errors.New("no index store configured")

// DocumentID derives a stable identity for the document at path.
func DocumentID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String()
}

// PersistIndex saves h at location.
func (e *Engine) PersistIndex(h *Handle, location string) error {
	if e.store == nil {
		return errNoStore
	}
	if err := e.store.Save(indexstore.NewBundle(h.DocumentID, h.Index, h.Meta.BuiltAt), location); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	logger.Debug("persisted %s to %s (%s)", h.DocumentID, location, e.store.Name())
	return nil
}

// LoadIndex restores a handle from location. Mismatched rows and segments
// fail with domain.ErrCorruptIndex.
func (e *Engine) LoadIndex(location string) (*Handle, error) {
	if e.store == nil {
		return nil, errNoStore
	}
	b, err := e.store.Load(location)
	if err != nil {
		return nil, err
	}
	ix, corpus, err := indexstore.Restore(b)
	if err != nil {
		return nil, err
	}
	return &Handle{DocumentID: b.Meta.DocumentID, Index: ix, Corpus: corpus, Meta: b.Meta}, nil
}

// Cached returns the handle cached for docID.
func (e *Engine) Cached(docID string) (*Handle, bool) {
	return e.handles.Get(docID)
}

// Open returns the handle for docID from the cache, then from location, then
// by building it. A persisted bundle built from different content is rebuilt
// and overwritten. Concurrent opens of one document share the work.
func (e *Engine) Open(docID string, corpus *domain.Corpus, location string) (*Handle, error) {
	h, cached, err := e.handles.Load(docID, func() (*Handle, error) {
		if h, ok := e.loadFresh(docID, corpus, location); ok {
			return h, nil
		}
		return e.buildAndPersist(docID, corpus, location)
	})
	if err != nil {
		return nil, err
	}
	if cached {
		logger.Debug("cache hit for %s", docID)
	}
	return h, nil
}

// Rebuild builds a new handle for docID and swaps it into the cache. Readers
// holding the previous handle keep using it undisturbed.
func (e *Engine) Rebuild(docID string, corpus *domain.Corpus, location string) (*Handle, error) {
	h, err := e.buildAndPersist(docID, corpus, location)
	if err != nil {
		return nil, err
	}
	e.handles.Swap(docID, h)
	return h, nil
}

func (e *Engine) loadFresh(docID string, corpus *domain.Corpus, location string) (*Handle, bool) {
	if location == "" || e.store == nil || !e.store.Exists(location) {
		return nil, false
	}
	h, err := e.LoadIndex(location)
	switch {
	case err != nil:
		logger.Warn("ignoring persisted index %s: %v", location, err)
		return nil, false
	case corpus != nil && h.Meta.Fingerprint != corpus.Fingerprint():
		logger.Info("persisted index %s is stale, rebuilding", location)
		return nil, false
	}
	h.DocumentID = docID
	logger.Debug("loaded %s from %s", docID, location)
	return h, true
}

func (e *Engine) buildAndPersist(docID string, corpus *domain.Corpus, location string) (*Handle, error) {
	h, err := e.BuildIndex(docID, corpus)
	if err != nil {
		return nil, err
	}
	if location != "" && e.store != nil {
		if err := e.PersistIndex(h, location); err != nil {
			return nil, err
		}
	}
	return h, nil
}
