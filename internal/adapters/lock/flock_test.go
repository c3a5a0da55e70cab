package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

func TestFileLock_AcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLock(dir, 0)

	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, LockFile))
	require.NoError(t, unlock())

	unlock, err = l.Lock(context.Background())
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestFileLock_BusyReturnsReloadInProgress(t *testing.T) {
	dir := t.TempDir()

	unlock, err := NewFileLock(dir, 0).Lock(context.Background())
	require.NoError(t, err)
	defer unlock()

	_, err = NewFileLock(dir, 300*time.Millisecond).Lock(context.Background())
	assert.ErrorIs(t, err, ports.ErrReloadInProgress)
}

func TestFileLock_WaitsForRelease(t *testing.T) {
	dir := t.TempDir()

	unlock, err := NewFileLock(dir, 0).Lock(context.Background())
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		unlock()
	}()

	second, err := NewFileLock(dir, 5*time.Second).Lock(context.Background())
	require.NoError(t, err)
	require.NoError(t, second())
}

func TestFileLock_ContextCancel(t *testing.T) {
	dir := t.TempDir()

	unlock, err := NewFileLock(dir, 0).Lock(context.Background())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewFileLock(dir, time.Minute).Lock(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
