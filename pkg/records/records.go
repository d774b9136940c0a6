// Package records defines the row shapes that flow through the compiler: the
// raw grid read from a source file (Table) and the canonical record set built
// from it (Frame).
package records

// Record is a single canonical row keyed by canonical field name. Fields that
// were not aliased in the source are simply absent.
type Record map[string]any

// Table is a raw source grid: one label per column and string cells. Every
// row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Width returns the number of columns.
func (t Table) Width() int { return len(t.Header) }

// Column returns a copy of the cells of column i.
func (t Table) Column(i int) []string {
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// Frame is an ordered set of canonical rows. Columns fixes the column order
// used for quarantine artifacts and loader inserts; Origin maps every row back
// to its row index in the source Table so that late, source-level fallbacks
// stay aligned after rows have been partitioned out.
type Frame struct {
	Columns []string
	Rows    []Record
	Origin  []int
}

// NewFrame returns a frame with n empty rows whose origins are 0..n-1.
func NewFrame(columns []string, n int) Frame {
	f := Frame{
		Columns: append([]string(nil), columns...),
		Rows:    make([]Record, n),
		Origin:  make([]int, n),
	}
	for i := range f.Rows {
		f.Rows[i] = Record{}
		f.Origin[i] = i
	}
	return f
}

// OriginOf returns the source row index of row i.
func (f Frame) OriginOf(i int) int {
	if i < len(f.Origin) {
		return f.Origin[i]
	}
	return i
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Rows) }

// Has reports whether col is one of the frame's columns.
func (f Frame) Has(col string) bool {
	for _, c := range f.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// AddColumn appends col to the column list when it is not present yet. Row
// values are left untouched; an absent key reads as nil.
func (f *Frame) AddColumn(col string) {
	if !f.Has(col) {
		f.Columns = append(f.Columns, col)
	}
}

// Values returns the values of col in row order (nil where unset).
func (f Frame) Values(col string) []any {
	out := make([]any, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r[col]
	}
	return out
}

// SetValues assigns vals to col row by row, adding the column if needed.
// vals must have one entry per row.
func (f *Frame) SetValues(col string, vals []any) {
	f.AddColumn(col)
	for i := range f.Rows {
		f.Rows[i][col] = vals[i]
	}
}

// Partition splits the frame by keep. Rows where keep[i] is true land in the
// first frame, all others in the second. Both keep the column order and the
// relative row order.
func (f Frame) Partition(keep []bool) (kept, dropped Frame) {
	kept = Frame{Columns: append([]string(nil), f.Columns...)}
	dropped = Frame{Columns: append([]string(nil), f.Columns...)}
	for i, r := range f.Rows {
		origin := f.OriginOf(i)
		if keep[i] {
			kept.Rows = append(kept.Rows, r)
			kept.Origin = append(kept.Origin, origin)
			continue
		}
		dropped.Rows = append(dropped.Rows, r)
		dropped.Origin = append(dropped.Origin, origin)
	}
	return kept, dropped
}

// Select returns a frame restricted to cols (in the given order). Columns not
// present in f are skipped. Rows are copied so the result can be mutated
// independently.
func (f Frame) Select(cols []string) Frame {
	keep := make([]string, 0, len(cols))
	for _, c := range cols {
		if f.Has(c) {
			keep = append(keep, c)
		}
	}
	out := Frame{
		Columns: keep,
		Rows:    make([]Record, len(f.Rows)),
		Origin:  append([]int(nil), f.Origin...),
	}
	for i, r := range f.Rows {
		nr := make(Record, len(keep))
		for _, c := range keep {
			if v, ok := r[c]; ok {
				nr[c] = v
			}
		}
		out.Rows[i] = nr
	}
	return out
}
