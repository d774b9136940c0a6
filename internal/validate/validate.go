// Package validate partitions canonical rows into loadable and rejected sets
// using AND-required fields and OR-groups.
package validate

import (
	"srccompiler/pkg/records"
)

// Fallback copies Source into Target for rows where Target is not populated.
type Fallback struct {
	Target string
	Source string
}

// DefaultFallbacks lets files that only carry an evaluation date satisfy a
// value-date requirement.
var DefaultFallbacks = []Fallback{{Target: "value_date", Source: "evaluation_date"}}

// Rules is the per-file rule set.
type Rules struct {
	Required    []string   // every field must be populated
	RequiredAny [][]string // each group needs one populated member
	Fallbacks   []Fallback
}

// ApplyFallbacks fills Target from Source row by row. Target is added as a
// column when the frame has Source but not Target. Rows are modified in
// place.
func ApplyFallbacks(f *records.Frame, fallbacks []Fallback) {
	for _, fb := range fallbacks {
		if fb.Target == fb.Source || !f.Has(fb.Source) {
			continue
		}
		if !f.Has(fb.Target) {
			f.AddColumn(fb.Target)
		}
		for _, row := range f.Rows {
			if !records.Populated(row[fb.Target]) && records.Populated(row[fb.Source]) {
				row[fb.Target] = row[fb.Source]
			}
		}
	}
}

// Check reports whether a single row satisfies the rules.
func (r Rules) Check(row records.Record) bool {
	for _, field := range r.Required {
		if !records.Populated(row[field]) {
			return false
		}
	}
	for _, group := range r.RequiredAny {
		ok := false
		for _, field := range group {
			if records.Populated(row[field]) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Partition applies the fallbacks and then splits f into rows that satisfy
// every rule and rows that do not. Required fields missing from the frame
// are added as empty columns so rejected rows show what was absent. Both
// halves keep source order. Rows are moved whole, never patched.
func Partition(f records.Frame, r Rules) (valid, invalid records.Frame) {
	f.Columns = append([]string(nil), f.Columns...)
	ApplyFallbacks(&f, r.Fallbacks)
	for _, field := range r.Required {
		f.AddColumn(field)
	}
	keep := make([]bool, f.Len())
	for i, row := range f.Rows {
		keep[i] = r.Check(row)
	}
	return f.Partition(keep)
}
