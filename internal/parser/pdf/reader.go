// Package pdf extracts tabular text from selected pages of a PDF document.
package pdf

import (
	"bytes"
	"fmt"

	lpdf "github.com/ledongthuc/pdf"

	"srccompiler/pkg/records"
)

// Read extracts one table per selected page and concatenates them. Pages
// without a table are skipped. A document with no table at all yields an
// empty table and no error.
func Read(data []byte, pages string) (records.Table, error) {
	sel, err := ParsePages(pages)
	if err != nil {
		return records.Table{}, err
	}
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return records.Table{}, fmt.Errorf("pdf: open: %w", err)
	}

	n := r.NumPage()
	var tables []records.Table
	for _, num := range sel {
		if num > n {
			return records.Table{}, fmt.Errorf("pdf: page %d out of range (%d pages)", num, n)
		}
		p := r.Page(num)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return records.Table{}, fmt.Errorf("pdf: page %d: %w", num, err)
		}
		if t, ok := Extract(linesOf(rows)); ok {
			tables = append(tables, t)
		}
	}
	return Concat(tables), nil
}

func linesOf(rows lpdf.Rows) []Line {
	out := make([]Line, 0, len(rows))
	for _, row := range rows {
		l := make(Line, 0, len(row.Content))
		for _, t := range row.Content {
			l = append(l, Fragment{X: t.X, S: t.S})
		}
		out = append(out, l)
	}
	return out
}
