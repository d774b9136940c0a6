package storage

import (
	"context"
	"fmt"
	"strings"

	"srccompiler/pkg/records"
)

// Load appends f to table through sess. Only frame columns that exist in the
// destination are written (matched case-insensitively, written with the
// destination's spelling); the rest are dropped silently. It returns the
// number of rows appended, which is 0 when no column matches or f is empty.
func Load(ctx context.Context, sess Session, table string, f records.Frame) (int64, error) {
	if f.Len() == 0 {
		return 0, nil
	}
	dest, err := sess.Columns(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("storage: columns of %s: %w", table, err)
	}
	src, cols := Intersect(f.Columns, dest)
	if len(cols) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(f.Rows))
	for i, rec := range f.Rows {
		row := make([]any, len(src))
		for j, c := range src {
			row[j] = records.Plain(rec[c])
		}
		rows[i] = row
	}
	n, err := sess.Append(ctx, table, cols, rows)
	if err != nil {
		return n, fmt.Errorf("storage: append %s: %w", table, err)
	}
	return n, nil
}

// Intersect returns the frame columns that have a destination column, in
// frame order, together with the destination spelling of each.
func Intersect(frame, dest []string) (src, cols []string) {
	byLower := make(map[string]string, len(dest))
	for _, d := range dest {
		k := strings.ToLower(d)
		if _, ok := byLower[k]; !ok {
			byLower[k] = d
		}
	}
	seen := make(map[string]bool, len(frame))
	for _, c := range frame {
		d, ok := byLower[strings.ToLower(c)]
		if !ok || seen[d] {
			continue
		}
		seen[d] = true
		src = append(src, c)
		cols = append(cols, d)
	}
	return src, cols
}

// SplitFQN splits "schema.table" into its parts. schema is empty for an
// unqualified name.
func SplitFQN(name string) (schema, table string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
