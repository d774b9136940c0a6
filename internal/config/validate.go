package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"srccompiler/internal/dialect"
	"srccompiler/internal/header"
	"srccompiler/internal/parser/dates"
	"srccompiler/internal/parser/pdf"
	"srccompiler/internal/source"
)

// ErrInvalid wraps the error-severity issues of a configuration.
var ErrInvalid = errors.New("config: invalid")

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that is surfaced to users but does
	// not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding.
//
// Path is a dotted path into the config (e.g. "store.kind",
// "files[1].map"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownStores lists the backends compiled into the binary.
var knownStores = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mssql":    {},
	"mysql":    {},
	"duckdb":   {},
}

// Validate lints c without mutating it.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	issues = append(issues, validateDialect(c)...)
	issues = append(issues, validateParsing(c)...)
	issues = append(issues, validateFiles(c)...)
	issues = append(issues, validateStore(c.Store)...)
	issues = append(issues, validateRuntime(c)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

// Err combines the error-severity issues into one error wrapping
// ErrInvalid. It returns nil when there are none.
func Err(issues []Issue) error {
	var errs error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = multierr.Append(errs, iss)
		}
	}
	if errs == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errs)
}

func validateDialect(c Config) []Issue {
	var issues []Issue
	if len(c.EncodingPriority) == 0 {
		issues = append(issues, Issue{SeverityError, "encoding_priority", "at least one encoding is required"})
	}
	issues = append(issues, checkEncodings("encoding_priority", c.EncodingPriority)...)
	if len(c.DelimiterPriority) == 0 {
		issues = append(issues, Issue{SeverityError, "delimiter_priority", "at least one delimiter is required"})
	}
	issues = append(issues, checkDelimiters("delimiter_priority", c.DelimiterPriority)...)
	return issues
}

func checkEncodings(path string, names []string) []Issue {
	var issues []Issue
	for i, name := range names {
		if _, err := dialect.Lookup(name); err != nil {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("%s[%d]", path, i), err.Error()})
		}
	}
	return issues
}

func checkDelimiters(path string, delims []string) []Issue {
	var issues []Issue
	for i, d := range delims {
		if _, err := dialect.ParseDelimiter(d); err != nil {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("%s[%d]", path, i), err.Error()})
		}
	}
	return issues
}

func validateParsing(c Config) []Issue {
	var issues []Issue

	if _, err := header.NewIndex(c.HeaderAliases); err != nil {
		issues = append(issues, Issue{SeverityError, "header_aliases", err.Error()})
	}
	if _, err := dates.NewParser(c.DateFormatPriority, c.DayFirst); err != nil {
		issues = append(issues, Issue{SeverityError, "date_format_priority", err.Error()})
	}
	if r := c.DQ.MinDateParseRate; r < 0 || r > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "dq_thresholds.min_date_parse_rate",
			Message:  fmt.Sprintf("min_date_parse_rate=%v; must be within [0, 1]", r),
		})
	}
	for i, fb := range c.Fields.Fallbacks {
		if fb.Target == "" || fb.Source == "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("fields.fallbacks[%d]", i), "fallback needs both target and source"})
		}
	}
	if _, err := pdf.ParsePages(c.FileDefaults.PDFPages); err != nil {
		issues = append(issues, Issue{SeverityError, "file_defaults.pdf_pages", err.Error()})
	}
	for i, t := range c.TruncateBeforeLoad {
		if strings.TrimSpace(t) == "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("truncate_before_load[%d]", i), "table name must not be empty"})
		}
	}
	return issues
}

func validateFiles(c Config) []Issue {
	var issues []Issue

	if len(c.Files) == 0 {
		return append(issues, Issue{SeverityWarning, "files", "no files configured; a run only truncates"})
	}

	aliased := make(map[string]bool, len(c.HeaderAliases))
	for canon := range c.HeaderAliases {
		aliased[canon] = true
	}
	for _, fb := range c.Fields.Fallbacks {
		if aliased[fb.Source] {
			aliased[fb.Target] = true
		}
	}

	seen := map[string]int{}
	for i, f := range c.Files {
		p := fmt.Sprintf("files[%d]", i)

		if strings.TrimSpace(f.Name) == "" {
			issues = append(issues, Issue{SeverityError, p + ".name", "name must not be empty"})
		} else if j, dup := seen[f.Name]; dup {
			issues = append(issues, Issue{SeverityError, p + ".name", fmt.Sprintf("name %q already used by files[%d]; quarantine artifacts would collide", f.Name, j)})
		} else {
			seen[f.Name] = i
		}
		if strings.TrimSpace(f.Path) == "" {
			issues = append(issues, Issue{SeverityError, p + ".path", "path must not be empty"})
		}
		switch source.NormalizeType(f.FileType) {
		case source.TypeCSV, source.TypeXLSX, source.TypeXLS, source.TypePDF:
		default:
			issues = append(issues, Issue{SeverityError, p + ".file_type", fmt.Sprintf("unknown file_type %q; want csv, txt, tsv, xlsx, xls or pdf", f.FileType)})
		}
		if strings.TrimSpace(f.TargetTable) == "" {
			issues = append(issues, Issue{SeverityError, p + ".target_table", "target_table must not be empty"})
		}

		issues = append(issues, checkEncodings(p+".encoding", f.Encoding)...)
		issues = append(issues, checkDelimiters(p+".delimiter", f.Delimiter)...)
		if f.PDFPages != "" {
			if _, err := pdf.ParsePages(f.PDFPages); err != nil {
				issues = append(issues, Issue{SeverityError, p + ".pdf_pages", err.Error()})
			}
		}
		for _, r := range f.HeaderRow {
			if r < 0 {
				issues = append(issues, Issue{SeverityError, p + ".header_row", "header rows must not be negative"})
				break
			}
		}
		for _, r := range f.SkipRows {
			if r < 0 {
				issues = append(issues, Issue{SeverityError, p + ".skiprows", "skip rows must not be negative"})
				break
			}
		}

		issues = append(issues, checkMap(p+".map", f.Map)...)

		for _, field := range f.Required {
			if !aliased[field] {
				issues = append(issues, unaliased(p+".required", field))
			}
		}
		for g, group := range f.RequiredAny {
			gp := fmt.Sprintf("%s.required_any[%d]", p, g)
			if len(group) == 0 {
				issues = append(issues, Issue{SeverityError, gp, "group must name at least one field"})
			}
			for _, field := range group {
				if !aliased[field] {
					issues = append(issues, unaliased(gp, field))
				}
			}
		}
	}
	return issues
}

func unaliased(path, field string) Issue {
	return Issue{
		Severity: SeverityWarning,
		Path:     path,
		Message:  fmt.Sprintf("field %q has no header_aliases entry; only a column literally named %q can satisfy it", field, field),
	}
}

// checkMap reports empty and duplicate target columns.
func checkMap(path string, m map[string]string) []Issue {
	var issues []Issue
	bySrc := make([]string, 0, len(m))
	for src := range m {
		bySrc = append(bySrc, src)
	}
	sort.Strings(bySrc)

	owner := map[string]string{}
	for _, src := range bySrc {
		dst := strings.TrimSpace(m[src])
		if dst == "" {
			issues = append(issues, Issue{SeverityError, path + "." + src, "target column must not be empty"})
			continue
		}
		key := strings.ToLower(dst)
		if prev, dup := owner[key]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + "." + src,
				Message:  fmt.Sprintf("target column %q is also mapped from %q", dst, prev),
			})
			continue
		}
		owner[key] = src
	}
	return issues
}

func validateStore(s Store) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{SeverityError, "store.kind", "store.kind must not be empty"})
	}
	if _, ok := knownStores[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "store.kind",
			Message:  fmt.Sprintf("unknown store kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" && s.Kind != "duckdb" {
		issues = append(issues, Issue{SeverityError, "store.dsn", "store.dsn must not be empty"})
	}
	return issues
}

func validateRuntime(c Config) []Issue {
	var issues []Issue
	if c.Runtime.Workers < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.workers", "workers must not be negative"})
	}
	if strings.TrimSpace(c.QuarantineDir) == "" {
		issues = append(issues, Issue{SeverityError, "quarantine_dir", "quarantine_dir must not be empty"})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires pushgateway_url"})
		}
	case "datadog":
		if m.StatsdAddr == "" {
			issues = append(issues, Issue{SeverityError, "metrics.statsd_addr", "datadog backend requires statsd_addr"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "metrics.backend", fmt.Sprintf("unknown metrics backend %q; want none, pushgateway or datadog", m.Backend)})
	}
	return issues
}
