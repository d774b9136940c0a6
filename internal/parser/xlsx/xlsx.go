// Package xlsx reads one worksheet of an Excel workbook into a
// records.Table. OOXML workbooks go through excelize, legacy BIFF8 (.xls)
// workbooks through ReadLegacy; both share Shape.
package xlsx

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"srccompiler/pkg/records"
)

// Options selects the sheet and the header layout.
type Options struct {
	// SheetName selects a sheet by name. When empty, SheetIndex is used.
	SheetName string
	// SheetIndex is the 0-based sheet position.
	SheetIndex int
	// HeaderRows lists the 0-based rows, counted after SkipRows, that make up
	// the header. Several rows form a multi-level header. Default is [0].
	HeaderRows []int
	// SkipRows lists 0-based sheet rows dropped before the header is located.
	SkipRows []int
}

// Read parses a workbook from r.
func Read(r io.Reader, opt Options) (records.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return records.Table{}, fmt.Errorf("xlsx: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet, err := pickSheet(f, opt)
	if err != nil {
		return records.Table{}, err
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return records.Table{}, fmt.Errorf("xlsx: rows of %q: %w", sheet, err)
	}
	return Shape(rows, opt.HeaderRows, opt.SkipRows)
}

func pickSheet(f *excelize.File, opt Options) (string, error) {
	list := f.GetSheetList()
	if opt.SheetName != "" {
		for _, s := range list {
			if s == opt.SheetName {
				return s, nil
			}
		}
		return "", fmt.Errorf("xlsx: sheet %q not found (have %v)", opt.SheetName, list)
	}
	if opt.SheetIndex < 0 || opt.SheetIndex >= len(list) {
		return "", fmt.Errorf("xlsx: sheet index %d out of range (%d sheets)", opt.SheetIndex, len(list))
	}
	return list[opt.SheetIndex], nil
}

// Shape turns raw sheet rows into a table. skip rows are removed first; the
// header rows are then located in what remains and flattened into one label
// per column. Rows between or above header rows are dropped, fully empty data
// rows are dropped, and every row is padded to the table width.
func Shape(rows [][]string, headerRows, skip []int) (records.Table, error) {
	if len(headerRows) == 0 {
		headerRows = []int{0}
	}
	hdr := append([]int(nil), headerRows...)
	sort.Ints(hdr)
	if hdr[0] < 0 {
		return records.Table{}, fmt.Errorf("xlsx: negative header row %d", hdr[0])
	}

	skipSet := make(map[int]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}
	kept := make([][]string, 0, len(rows))
	for i, r := range rows {
		if !skipSet[i] {
			kept = append(kept, r)
		}
	}

	last := hdr[len(hdr)-1]
	if last >= len(kept) {
		return records.Table{}, fmt.Errorf("xlsx: header row %d beyond last row %d", last, len(kept)-1)
	}

	width := 0
	for i := hdr[0]; i < len(kept); i++ {
		width = max(width, len(kept[i]))
	}

	levels := make([][]string, len(hdr))
	for l, idx := range hdr {
		levels[l] = pad(kept[idx], width)
	}
	t := records.Table{Header: flatten(levels, width)}
	for _, r := range kept[last+1:] {
		if blank(r) {
			continue
		}
		t.Rows = append(t.Rows, pad(r, width))
	}
	return t, nil
}

// flatten joins the non-empty levels of each column with a space. Upper
// levels are forward-filled across columns, the way merged header cells read.
func flatten(levels [][]string, width int) []string {
	for l := 0; l < len(levels)-1; l++ {
		prev := ""
		for c := 0; c < width; c++ {
			v := strings.TrimSpace(levels[l][c])
			if v == "" {
				levels[l][c] = prev
				continue
			}
			prev = v
		}
	}
	out := make([]string, width)
	for c := 0; c < width; c++ {
		parts := make([]string, 0, len(levels))
		for l := range levels {
			if v := strings.TrimSpace(levels[l][c]); v != "" {
				parts = append(parts, v)
			}
		}
		out[c] = strings.Join(parts, " ")
	}
	return out
}

func pad(r []string, width int) []string {
	out := make([]string, width)
	copy(out, r)
	return out
}

func blank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
