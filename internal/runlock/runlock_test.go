//go:build unix

package runlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireIsExclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "quarantine")

	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := os.Stat(Path(dir)); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	// flock locks belong to the open file description, so a second open in
	// the same process conflicts as another process would.
	if _, err := Acquire(dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire() error = %v, want ErrLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	again, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() after Release error = %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestAcquireLeavesDirectoryUntouched(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "quarantine")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer l.Release()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("quarantine dir has %d entries, want 0", len(entries))
	}
	if got, want := Path(dir+"/"), dir+".lock"; got != want {
		t.Fatalf("Path() = %q, want %q", got, want)
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Fatalf("nil Release() error = %v", err)
	}
}
