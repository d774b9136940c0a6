// Package quarantine persists rejected rows as a last-run audit trail: one
// CSV per (file name, reason), replaced on every run.
package quarantine

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"srccompiler/pkg/records"
)

// Reason tags why rows were rejected.
type Reason string

const (
	MissingRequired      Reason = "missing_required"
	CalendarLowDateParse Reason = "calendar_low_date_parse"
)

// Sink receives rejected rows.
type Sink interface {
	// Write stores f under (name, reason), replacing an earlier write with the
	// same key. It returns where the rows went.
	Write(name string, reason Reason, f records.Frame) (string, error)
}

// Dir writes <dir>/<name>_<reason>.csv files.
type Dir struct {
	dir string

	mu      sync.Mutex
	reasons map[Reason]int
}

// NewDir returns a sink rooted at dir. The directory is created on first
// write.
func NewDir(dir string) *Dir {
	return &Dir{dir: dir, reasons: make(map[Reason]int)}
}

// Path returns the artifact path for (name, reason).
func (d *Dir) Path(name string, reason Reason) string {
	return filepath.Join(d.dir, fileName(name)+"_"+string(reason)+".csv")
}

// Write renders f as UTF-8 CSV with a header row in column order. Dates are
// written as YYYY-MM-DD and missing values as empty cells. The file is
// written to a temporary name and renamed into place.
func (d *Dir) Write(name string, reason Reason, f records.Frame) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("quarantine: create dir %s: %w", d.dir, err)
	}
	target := d.Path(name, reason)

	tmp, err := os.CreateTemp(d.dir, ".quarantine-*.csv")
	if err != nil {
		return "", fmt.Errorf("quarantine: temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := writeFrame(w, f); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("quarantine: write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("quarantine: close %s: %w", target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("quarantine: rename %s: %w", target, err)
	}

	d.mu.Lock()
	d.reasons[reason] += f.Len()
	d.mu.Unlock()
	return target, nil
}

// Counts returns the number of rows written per reason so far.
func (d *Dir) Counts() map[Reason]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[Reason]int, len(d.reasons))
	for k, v := range d.reasons {
		out[k] = v
	}
	return out
}

func writeFrame(w *csv.Writer, f records.Frame) error {
	if err := w.Write(f.Columns); err != nil {
		return err
	}
	cells := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i, c := range f.Columns {
			cells[i] = records.Text(row[c])
		}
		if err := w.Write(cells); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// fileName keeps a configured name from escaping the quarantine directory.
func fileName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "unnamed"
	}
	return name
}
