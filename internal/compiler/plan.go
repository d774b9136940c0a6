package compiler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"srccompiler/internal/calendar"
	"srccompiler/internal/config"
	"srccompiler/internal/datasource"
	"srccompiler/internal/datasource/file"
	"srccompiler/internal/datasource/httpds"
	"srccompiler/internal/dialect"
	"srccompiler/internal/header"
	"srccompiler/internal/metrics"
	"srccompiler/internal/parser/numbers"
	"srccompiler/internal/parser/xlsx"
	"srccompiler/internal/quarantine"
	"srccompiler/internal/source"
	"srccompiler/internal/validate"
	"srccompiler/pkg/records"
)

// plan is the side-effect free outcome of preparing one file.
type plan struct {
	report     FileReport
	quarantine []rejected
	load       records.Frame
}

type rejected struct {
	reason quarantine.Reason
	rows   records.Frame
}

// prepare reads fs and shapes it into a plan. Read problems end up in the
// plan's status; the error is reserved for cancellation.
func (c *Compiler) prepare(ctx context.Context, log *zap.Logger, fs config.FileSpec) (plan, error) {
	fs = fs.Effective(c.cfg.FileDefaults)
	p := plan{report: FileReport{Name: fs.Name, Path: fs.Path, TargetTable: fs.TargetTable}}

	start := c.now()
	loaded, err := loadSourceFn(ctx, c.open(fs.Path), c.request(fs))
	metrics.RecordStep(c.cfg.Job, "read", err, c.now().Sub(start))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return p, ctxErr
		}
		p.report.Status = StatusReadFailed
		if errors.Is(err, source.ErrMissing) {
			p.report.Status = StatusMissing
		}
		p.report.Err = err
		return p, nil
	}

	p.report.Fingerprint = loaded.Fingerprint
	if loaded.Dialect.Encoding != "" {
		p.report.Encoding = loaded.Dialect.Encoding
		p.report.Delimiter = string(loaded.Dialect.Delimiter)
	}

	table := loaded.Table
	if fs.Calendar {
		if repaired, ok := calendar.RepairSplitHeader(table); ok {
			log.Debug("repaired split calendar header", zap.String("file", fs.Name), zap.Strings("header", table.Header))
			table = repaired
		}
	}
	p.report.Read = len(table.Rows)
	metrics.RecordRows(c.cfg.Job, "read", int64(len(table.Rows)))

	start = c.now()
	headers := header.Normalize(table.Header)
	frame := c.canonical(table, headers)

	valid, invalid := validate.Partition(frame, validate.Rules{
		Required:    fs.Required,
		RequiredAny: fs.RequiredAny,
		Fallbacks:   c.fallbacks,
	})
	metrics.RecordStep(c.cfg.Job, "validate", nil, c.now().Sub(start))
	if invalid.Len() > 0 {
		p.quarantine = append(p.quarantine, rejected{reason: quarantine.MissingRequired, rows: invalid})
	}

	p.report.Status = StatusLoaded
	if fs.Calendar {
		shaped := calendar.Shape(valid, calendar.Source{Table: table, Headers: headers}, c.dates)
		pass, rate := calendar.Gate(shaped, c.cfg.DQ.MinDateParseRate)
		p.report.DateParseRate = rate
		if !pass {
			p.report.Status = StatusGated
			p.report.Reason = string(quarantine.CalendarLowDateParse)
			p.quarantine = append(p.quarantine, rejected{reason: quarantine.CalendarLowDateParse, rows: shaped})
			return p, nil
		}
		p.load = shaped
		return p, nil
	}

	c.parseNumbers(&valid)
	p.load = project(valid, fs.Map)
	return p, nil
}

// open picks the datasource for path: http(s) URLs are fetched, everything
// else is read from disk.
func (c *Compiler) open(path string) datasource.Source {
	if httpds.IsURL(path) {
		return httpds.NewRemote(c.remote, path)
	}
	return file.NewLocal(path)
}

// request turns a file spec into a source read request. Per-file encodings
// and delimiters are tried before the global priorities.
func (c *Compiler) request(fs config.FileSpec) source.Request {
	req := source.Request{
		Type:       fs.FileType,
		Encodings:  dialect.Candidates(c.cfg.EncodingPriority, fs.Encoding),
		Delimiters: dialect.Candidates(c.cfg.DelimiterPriority, fs.Delimiter),
		Sheet: xlsx.Options{
			HeaderRows: fs.HeaderRow,
			SkipRows:   fs.SkipRows,
		},
		PDFPages: fs.PDFPages,
	}
	sheet := strings.TrimSpace(fs.Sheet)
	if n, err := strconv.Atoi(sheet); err == nil && n >= 0 {
		req.Sheet.SheetIndex = n
	} else {
		req.Sheet.SheetName = sheet
	}
	return req
}

// canonical builds the canonical frame: one column per aliased field in
// source column order, raw text values, then configured date fields parsed.
func (c *Compiler) canonical(t records.Table, headers []string) records.Frame {
	bindings := c.index.Resolve(headers)
	cols := make([]string, len(bindings))
	for i, b := range bindings {
		cols[i] = b.Canonical
	}

	f := records.NewFrame(cols, len(t.Rows))
	for r, row := range t.Rows {
		for _, b := range bindings {
			v := ""
			if b.Column < len(row) {
				v = row[b.Column]
			}
			f.Rows[r][b.Canonical] = v
		}
	}

	for _, field := range c.cfg.Fields.Dates {
		if !f.Has(field) {
			continue
		}
		raw := make([]string, f.Len())
		for i, row := range f.Rows {
			raw[i] = records.Text(row[field])
		}
		parsed := c.dates.Parse(raw)
		vals := make([]any, len(parsed))
		for i, d := range parsed {
			vals[i] = d
		}
		f.SetValues(field, vals)
	}
	return f
}

func (c *Compiler) parseNumbers(f *records.Frame) {
	for _, field := range c.cfg.Fields.Numeric {
		if !f.Has(field) {
			continue
		}
		for _, row := range f.Rows {
			row[field] = numbers.Parse(records.Text(row[field]))
		}
	}
}

// project renames canonical fields to target columns, keeping only mapped
// fields in frame column order. An empty map keeps the frame as is.
func project(f records.Frame, m map[string]string) records.Frame {
	if len(m) == 0 {
		return f
	}
	var src, dst []string
	for _, col := range f.Columns {
		if target, ok := m[col]; ok {
			src = append(src, col)
			dst = append(dst, target)
		}
	}
	out := records.Frame{
		Columns: dst,
		Rows:    make([]records.Record, f.Len()),
		Origin:  append([]int(nil), f.Origin...),
	}
	for i, row := range f.Rows {
		nr := make(records.Record, len(src))
		for j, col := range src {
			nr[dst[j]] = row[col]
		}
		out.Rows[i] = nr
	}
	return out
}
