// Package lock serializes index maintenance across processes with an
// advisory file lock, so a CLI reload and a server-triggered reload never
// clear the index at the same time.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

var _ ports.Locker = (*FileLock)(nil)

// LockFile is the lock filename inside the data directory.
const LockFile = "reload.lock"

const pollInterval = 200 * time.Millisecond

// FileLock is a ports.Locker over a lock file.
type FileLock struct {
	path string
	wait time.Duration
}

// NewFileLock creates a lock at dataDir/reload.lock. Lock gives up after
// wait; a zero wait means a single attempt.
func NewFileLock(dataDir string, wait time.Duration) *FileLock {
	return &FileLock{path: filepath.Join(dataDir, LockFile), wait: wait}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Lock polls until the lock is acquired, the wait elapses or ctx is done.
// A busy lock yields ports.ErrReloadInProgress.
func (l *FileLock) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(l.path)
	deadline := time.Now().Add(l.wait)
	for {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire reload lock: %w", err)
		}
		if locked {
			return fl.Unlock, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w (lock: %s)", ports.ErrReloadInProgress, l.path)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
