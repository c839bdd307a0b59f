package catalog

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked means another process holds the catalog run lock.
var ErrLocked = errors.New("catalog is locked by another run")

// RunLock serializes catalog runs against the same database.
type RunLock struct {
	lock *flock.Flock
}

// LockPath returns the lock file used for the database at dbPath.
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// AcquireRunLock takes the run lock without waiting.
func AcquireRunLock(dbPath string) (*RunLock, error) {
	lock := flock.New(LockPath(dbPath))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, LockPath(dbPath))
	}
	return &RunLock{lock: lock}, nil
}

// Release drops the lock. It is safe to call on a nil lock.
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
