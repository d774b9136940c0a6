package compiler

import "time"

// Status is the outcome of one file in a run.
type Status string

const (
	// StatusLoaded means the file was read and its valid rows appended. The
	// row count may still be zero.
	StatusLoaded Status = "loaded"
	// StatusMissing means the configured path does not exist.
	StatusMissing Status = "missing"
	// StatusReadFailed means no encoding/delimiter combination, sheet or
	// PDF page produced a table.
	StatusReadFailed Status = "read_failed"
	// StatusGated means a calendar file fell below the date parse rate and
	// was quarantined whole.
	StatusGated Status = "gated"
	// StatusFailed means writing quarantine rows or appending to the
	// destination failed. The run stops after such a file.
	StatusFailed Status = "failed"
	// StatusSkipped marks files not attempted because an earlier file failed.
	StatusSkipped Status = "skipped"
)

// FileReport describes what happened to one configured file.
type FileReport struct {
	Name        string
	Path        string
	TargetTable string
	Status      Status

	Read        int   // data rows in the source table
	Loaded      int64 // rows appended to TargetTable
	Quarantined int   // rows written to quarantine artifacts

	// Reason is the quarantine reason of a gated file.
	Reason        string
	DateParseRate float64 // calendar files only

	Encoding    string
	Delimiter   string
	Fingerprint string
	Artifacts   []string

	Err error
}

// Report is the result of one compiler run, with files in config order.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Files    []FileReport
}

// Totals maps each file name to the rows it loaded.
func (r Report) Totals() map[string]int64 {
	out := make(map[string]int64, len(r.Files))
	for _, f := range r.Files {
		out[f.Name] = f.Loaded
	}
	return out
}

// Sum adds up loaded and quarantined rows over all files.
func (r Report) Sum() (loaded int64, quarantined int) {
	for _, f := range r.Files {
		loaded += f.Loaded
		quarantined += f.Quarantined
	}
	return loaded, quarantined
}
