package xlsx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/extrame/xls"

	"srccompiler/pkg/records"
)

// oleSignature starts every OLE2 compound file, the container of BIFF8
// (.xls) workbooks.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// maxLegacyCols is the BIFF8 column limit.
const maxLegacyCols = 256

// ErrNotLegacy is returned by ReadLegacy for data without the OLE2 signature.
var ErrNotLegacy = errors.New("xls: not an OLE2 workbook")

// IsLegacy reports whether data holds a pre-2007 binary workbook.
func IsLegacy(data []byte) bool { return bytes.HasPrefix(data, oleSignature) }

// ReadLegacy parses a BIFF8 workbook. Sheet selection and header shaping
// work as in Read.
func ReadLegacy(data []byte, opt Options) (t records.Table, err error) {
	if !IsLegacy(data) {
		return records.Table{}, ErrNotLegacy
	}
	// The BIFF reader panics on truncated streams.
	defer func() {
		if r := recover(); r != nil {
			t, err = records.Table{}, fmt.Errorf("xls: corrupt workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return records.Table{}, fmt.Errorf("xls: open: %w", err)
	}
	if wb == nil {
		return records.Table{}, errors.New("xls: open: no Workbook stream")
	}
	ws, err := pickLegacySheet(wb, opt)
	if err != nil {
		return records.Table{}, err
	}
	return Shape(legacyRows(ws), opt.HeaderRows, opt.SkipRows)
}

func pickLegacySheet(wb *xls.WorkBook, opt Options) (*xls.WorkSheet, error) {
	n := wb.NumSheets()
	if opt.SheetName != "" {
		names := make([]string, 0, n)
		for i := 0; i < n; i++ {
			ws := wb.GetSheet(i)
			if ws == nil {
				continue
			}
			if ws.Name == opt.SheetName {
				return ws, nil
			}
			names = append(names, ws.Name)
		}
		return nil, fmt.Errorf("xls: sheet %q not found (have %v)", opt.SheetName, names)
	}
	if opt.SheetIndex < 0 || opt.SheetIndex >= n {
		return nil, fmt.Errorf("xls: sheet index %d out of range (%d sheets)", opt.SheetIndex, n)
	}
	ws := wb.GetSheet(opt.SheetIndex)
	if ws == nil {
		return nil, fmt.Errorf("xls: sheet index %d unreadable", opt.SheetIndex)
	}
	return ws, nil
}

// legacyRows renders the sheet as text rows with trailing empty cells
// trimmed, matching what excelize returns for OOXML sheets.
func legacyRows(ws *xls.WorkSheet) [][]string {
	rows := make([]*xls.Row, int(ws.MaxRow)+1)
	width := 0
	for i := range rows {
		rows[i] = rowAt(ws, i)
		if rows[i] != nil {
			width = max(width, rows[i].LastCol())
		}
	}
	// Cells written without ROW records leave LastCol at 0.
	for c := width; c < maxLegacyCols; c++ {
		for _, r := range rows {
			if r != nil && r.Col(c) != "" {
				width = c + 1
				break
			}
		}
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		if r == nil {
			continue
		}
		cells := make([]string, width)
		last := 0
		for c := range cells {
			cells[c] = r.Col(c)
			if cells[c] != "" {
				last = c + 1
			}
		}
		out[i] = cells[:last]
	}
	return out
}

// rowAt returns row i or nil when the sheet holds no cells for it; the
// library panics on absent rows.
func rowAt(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}
