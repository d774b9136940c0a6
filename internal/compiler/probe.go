package compiler

import (
	"context"
	"fmt"

	"srccompiler/internal/calendar"
	"srccompiler/internal/config"
	"srccompiler/internal/header"
)

// Probe is what a file looks like to the compiler before validation.
type Probe struct {
	Name        string
	Path        string
	Encoding    string
	Delimiter   string
	Sniffed     bool
	Fingerprint string
	Rows        int
	Repaired    bool // split calendar header joined back

	Headers  []string         // normalized
	Bindings []header.Binding // canonical fields found, in column order
	Unmapped []string         // normalized headers not bound to a field
	// Unbound lists required fields with no column and no fallback source.
	Unbound []string
}

// Probe reads fs and reports the resolved dialect and the alias bindings.
// Nothing is written.
func (c *Compiler) Probe(ctx context.Context, fs config.FileSpec) (Probe, error) {
	fs = fs.Effective(c.cfg.FileDefaults)
	loaded, err := loadSourceFn(ctx, c.open(fs.Path), c.request(fs))
	if err != nil {
		return Probe{}, fmt.Errorf("compiler: probe %s: %w", fs.Name, err)
	}

	table := loaded.Table
	pr := Probe{
		Name:        fs.Name,
		Path:        fs.Path,
		Encoding:    loaded.Dialect.Encoding,
		Sniffed:     loaded.Dialect.Sniffed,
		Fingerprint: loaded.Fingerprint,
	}
	if fs.Calendar {
		table, pr.Repaired = calendar.RepairSplitHeader(table)
	}
	pr.Rows = len(table.Rows)
	pr.Headers = header.Normalize(table.Header)
	if loaded.Dialect.Delimiter != 0 {
		pr.Delimiter = string(loaded.Dialect.Delimiter)
	}
	pr.Bindings = c.index.Resolve(pr.Headers)

	bound := make(map[string]bool, len(pr.Bindings))
	usedCol := make(map[int]bool, len(pr.Bindings))
	for _, b := range pr.Bindings {
		bound[b.Canonical] = true
		usedCol[b.Column] = true
	}
	for i, h := range pr.Headers {
		if !usedCol[i] {
			pr.Unmapped = append(pr.Unmapped, h)
		}
	}
	for _, fb := range c.fallbacks {
		if bound[fb.Source] {
			bound[fb.Target] = true
		}
	}
	for _, field := range fs.Required {
		if !bound[field] {
			pr.Unbound = append(pr.Unbound, field)
		}
	}
	return pr, nil
}
