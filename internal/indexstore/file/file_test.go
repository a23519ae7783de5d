package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractqa/internal/domain"
	"contractqa/internal/embedding/tfidf"
	"contractqa/internal/indexstore"
)

func testBundle(t *testing.T) (indexstore.Bundle, *tfidf.Index) {
	t.Helper()
	corpus, err := domain.NewCorpus([]domain.Segment{
		{ID: "seg_0", Title: "Governing law", Text: "This Agreement is governed by the laws of California."},
		{ID: "seg_1", Title: "Payment", Text: "Invoices are payable net 30 days after receipt."},
		{ID: "seg_2", Title: "Termination", Text: "Either party may terminate on thirty days written notice."},
	})
	require.NoError(t, err)
	ix, err := tfidf.Build(corpus, tfidf.DefaultOptions())
	require.NoError(t, err)
	return indexstore.NewBundle("doc", ix, time.Now()), ix
}

func TestStorage_SaveLoad(t *testing.T) {
	s := NewStorage()
	path := filepath.Join(t.TempDir(), "nested", "index.json")
	b, ix := testBundle(t)

	assert.False(t, s.Exists(path))
	require.NoError(t, s.Save(b, path))
	assert.True(t, s.Exists(path))

	loaded, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, b.Meta.Fingerprint, loaded.Meta.Fingerprint)
	assert.True(t, b.Meta.BuiltAt.Equal(loaded.Meta.BuiltAt))

	restored, _, err := indexstore.Restore(loaded)
	require.NoError(t, err)
	for _, q := range []string{"governing law", "net 30", "terminate notice", "California", "receipt of invoices"} {
		assert.Equal(t, ix.Score(q), restored.Score(q), q)
	}
}

func TestStorage_Errors(t *testing.T) {
	s := NewStorage()
	dir := t.TempDir()

	_, err := s.Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{not json"), 0o644))
	_, err = s.Load(garbage)
	assert.ErrorIs(t, err, domain.ErrCorruptIndex)

	b, _ := testBundle(t)
	b.Index.Rows = b.Index.Rows[:2]
	assert.ErrorIs(t, s.Save(b, filepath.Join(dir, "bad.json")), domain.ErrCorruptIndex)
}

func TestStorage_LoadDetectsRowMismatch(t *testing.T) {
	s := NewStorage()
	path := filepath.Join(t.TempDir(), "index.json")
	b, _ := testBundle(t)
	require.NoError(t, s.Save(b, path))

	// corrupt on disk behind the store's back
	b.Index.Rows = b.Index.Rows[:1]
	data := mustJSON(t, b)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := s.Load(path)
	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}
