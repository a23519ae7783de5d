package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "analysis.txt")

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"create", fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		{"write", fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		{"write and chmod", fsnotify.Event{Name: target, Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"chmod", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: target, Op: fsnotify.Remove}, false},
		{"rename", fsnotify.Event{Name: target, Op: fsnotify.Rename}, false},
		{"sibling", fsnotify.Event{Name: filepath.Join(dir, "other.txt"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev, target))
		})
	}
}

func TestWatch_DeliversDebouncedWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "analysis.txt")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := WatchDebounced(ctx, target, 50*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	for _, v := range []string{"v2", "v3", "v4"} {
		require.NoError(t, os.WriteFile(target, []byte(v), 0o644))
	}

	select {
	case ev := <-events:
		abs, _ := filepath.Abs(target)
		assert.Equal(t, abs, ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	_, err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "file.txt"))
	assert.Error(t, err)
}
