// Package calendar shapes calendar-only extracts into date rows with
// derived attributes and decides whether a file is trustworthy enough to
// load.
package calendar

import (
	"strings"

	"srccompiler/internal/header"
	"srccompiler/internal/parser/dates"
	"srccompiler/internal/parser/numbers"
	"srccompiler/pkg/records"
)

// Output columns, in load order.
var Columns = []string{"date", "day", "month", "week", "quarter", "year", "is_month_end", "is_year_end"}

var (
	intFields  = []string{"day", "month", "week", "quarter", "year"}
	boolFields = []string{"is_month_end", "is_year_end"}
	truthy     = map[string]bool{"1": true, "true": true, "yes": true, "y": true}
)

// RepairSplitHeader undoes a delimiter mis-sniff that split a lone "Date"
// column into "Da"/"te" (or "Da"/"e"). The two fragments are concatenated
// back into one column per row. ok reports whether a repair happened.
func RepairSplitHeader(t records.Table) (records.Table, bool) {
	if t.Width() != 2 {
		return t, false
	}
	h := header.Normalize(t.Header)
	pair := map[string]bool{h[0]: true, h[1]: true}
	split := len(pair) == 2 && pair["da"] && (pair["te"] || pair["e"])
	if !split {
		return t, false
	}
	out := records.Table{Header: []string{"Date"}, Rows: make([][]string, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = []string{r[0] + r[1]}
	}
	return out, true
}

// Source is the raw table a frame was built from, with normalized headers.
type Source struct {
	Table   records.Table
	Headers []string
}

// Shape builds the calendar frame. The date column is taken from, in order:
// the value_date field, an aliased date field, a raw column whose normalized
// header is "date", or the only column of a single-column source. Raw
// cells are read through the frame's row origins so rows that were already
// partitioned out stay excluded.
func Shape(f records.Frame, src Source, p *dates.Parser) records.Frame {
	f.Columns = append([]string(nil), f.Columns...)

	if !f.Has("value_date") && !f.Has("date") {
		col := -1
		if src.Table.Width() == 1 {
			col = 0
		} else {
			for i, h := range src.Headers {
				if h == "date" {
					col = i
					break
				}
			}
		}
		if col >= 0 {
			f.AddColumn("date")
			for i, row := range f.Rows {
				row["date"] = cell(src.Table, f.OriginOf(i), col)
			}
		}
	}

	switch {
	case f.Has("value_date"):
		setDates(&f, "value_date", p)
	case f.Has("date"):
		setDates(&f, "date", p)
	}

	for _, c := range intFields {
		if !f.Has(c) {
			continue
		}
		for _, row := range f.Rows {
			row[c] = numbers.ParseInt(records.Text(row[c]))
		}
	}
	for _, c := range boolFields {
		if !f.Has(c) {
			continue
		}
		for _, row := range f.Rows {
			row[c] = truthy[strings.ToLower(strings.TrimSpace(records.Text(row[c])))]
		}
	}
	return f.Select(Columns)
}

func setDates(f *records.Frame, from string, p *dates.Parser) {
	f.AddColumn("date")
	for _, row := range f.Rows {
		switch v := row[from].(type) {
		case records.Date:
			row["date"] = v
		case string:
			row["date"] = p.ParseOne(v)
		default:
			row["date"] = records.Date{}
		}
	}
}

func cell(t records.Table, row, col int) string {
	if row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// ParseRate is the share of rows with a valid date. ok is false when the
// frame has no date column or no rows, in which case no gate applies.
func ParseRate(f records.Frame) (rate float64, ok bool) {
	if !f.Has("date") || f.Len() == 0 {
		return 0, false
	}
	n := 0
	for _, row := range f.Rows {
		if records.Populated(row["date"]) {
			n++
		}
	}
	return float64(n) / float64(f.Len()), true
}

// Gate reports whether a shaped frame may be loaded: its date parse rate must
// reach threshold. Frames without a measurable rate pass.
func Gate(f records.Frame, threshold float64) (pass bool, rate float64) {
	rate, ok := ParseRate(f)
	if !ok {
		return true, rate
	}
	return rate >= threshold, rate
}
