// Package lockfile takes exclusive advisory locks on open files.
//
// The locks are advisory: they only exclude processes that take the same
// lock on the same file. A writer that appends without locking is not
// blocked and can interleave with a locked rewrite.
package lockfile

import (
	"errors"
	"os"
)

// ErrLocked is returned by TryLock when another holder owns the lock.
var ErrLocked = errors.New("file is locked by another holder")

// TryLock takes an exclusive lock on f without waiting.
// It returns an error wrapping ErrLocked if the lock is held elsewhere.
func TryLock(f *os.File) error {
	return lock(f, false)
}

// Lock takes an exclusive lock on f, waiting until it is available.
func Lock(f *os.File) error {
	return lock(f, true)
}

// Unlock releases a lock taken with TryLock or Lock.
func Unlock(f *os.File) error {
	return unlock(f)
}
