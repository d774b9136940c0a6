// Package runlock serializes compiler runs that share a quarantine directory.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Suffix is appended to the locked directory's path to name its lock file.
// The lock sits beside the directory so the directory holds only run output.
const Suffix = ".lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("runlock: another run holds the lock")

// Lock is a held exclusive lock. Release it when the run ends.
type Lock struct {
	f *os.File
}

// Path returns the lock file guarding dir, e.g. "out/quarantine.lock".
func Path(dir string) string {
	return filepath.Clean(dir) + Suffix
}

// Acquire takes the lock for dir without blocking. Only the parent of dir is
// created; dir itself is left untouched.
func Acquire(dir string) (*Lock, error) {
	path := Path(dir)
	if parent := filepath.Dir(path); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("runlock: mkdir %s: %w", parent, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("runlock: open %s: %w", path, err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}
	return &Lock{f: f}, nil
}

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlockFile(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
