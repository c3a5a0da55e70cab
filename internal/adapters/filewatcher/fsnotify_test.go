package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

func TestFSNotifyWatcher_EmitsWatchedFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.bin"), []byte("x"), 0644))
	path := filepath.Join(dir, "access.md")
	require.NoError(t, os.WriteFile(path, []byte("# 福江港"), 0644))

	select {
	case ev := <-events:
		assert.Equal(t, path, ev.Path)
		assert.Contains(t, []ports.FileOperation{ports.FileCreated, ports.FileModified}, ev.Operation)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestFSNotifyWatcher_WatchesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "brochures")
	require.NoError(t, os.Mkdir(nested, 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".cache"), 0755))

	w, err := NewFSNotifyWatcher([]string{".txt"})
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cache", "x.txt"), []byte("x"), 0644))
	path := filepath.Join(nested, "naru.txt")
	require.NoError(t, os.WriteFile(path, []byte("奈留島"), 0644))

	select {
	case ev := <-events:
		assert.Equal(t, path, ev.Path)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestFSNotifyWatcher_MissingDir(t *testing.T) {
	w, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer w.Stop()

	_, err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestIsWatchedExtension(t *testing.T) {
	w, err := NewFSNotifyWatcher([]string{".TXT", ".pdf"})
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.isWatchedExtension("/docs/a.txt"))
	assert.True(t, w.isWatchedExtension("/docs/B.PDF"))
	assert.False(t, w.isWatchedExtension("/docs/c.md"))
	assert.False(t, w.isWatchedExtension("/docs/noext"))
	assert.True(t, hidden(".DS_Store"))
}

func TestDebounce_CoalescesBurst(t *testing.T) {
	events := make(chan ports.FileEvent)
	var calls atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Debounce(ctx, events, 50*time.Millisecond, func(context.Context) { calls.Add(1) })
		close(done)
	}()

	for i := 0; i < 5; i++ {
		events <- ports.FileEvent{Path: "a.txt", Operation: ports.FileModified}
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	<-done
}

func TestDebounce_StopsWhenChannelCloses(t *testing.T) {
	events := make(chan ports.FileEvent, 1)
	events <- ports.FileEvent{Path: "a.txt"}
	close(events)

	var calls atomic.Int32
	Debounce(context.Background(), events, time.Hour, func(context.Context) { calls.Add(1) })

	assert.Zero(t, calls.Load(), "pending call dropped on close")
}
