package xlsx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	for _, name := range []string{"Sheet1", "Positions"} {
		rows, ok := sheets[name]
		if !ok {
			continue
		}
		if name != "Sheet1" {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, r := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			row := r
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadFirstSheetByIndex(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"Sheet1": {
			{"Portfolio", "Value date", "Qty"},
			{"P1", 44927, 10.5},
			{"P2", "2023-01-02", 3},
		},
	})
	tbl, err := Read(buf, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Portfolio", "Value date", "Qty"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "44927", tbl.Rows[0][1])
	assert.Equal(t, "10.5", tbl.Rows[0][2])
}

func TestReadSheetByNameWithSkipRows(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"Sheet1": {{"ignored"}},
		"Positions": {
			{"Report generated 2023-01-31"},
			{},
			{"Portfolio", "Qty"},
			{"P1", 1},
		},
	})
	tbl, err := Read(buf, Options{SheetName: "Positions", SkipRows: []int{0, 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Portfolio", "Qty"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"P1", "1"}, tbl.Rows[0])
}

func TestReadMissingSheet(t *testing.T) {
	buf := workbook(t, map[string][][]any{"Sheet1": {{"a"}}})
	_, err := Read(buf, Options{SheetName: "Nope"})
	assert.Error(t, err)

	buf = workbook(t, map[string][][]any{"Sheet1": {{"a"}}})
	_, err = Read(buf, Options{SheetIndex: 3})
	assert.Error(t, err)
}

func TestShapeFlattensMultiLevelHeader(t *testing.T) {
	rows := [][]string{
		{"Position", "", "Valuation", ""},
		{"Portfolio", "ISIN", "Value", "Date"},
		{"P1", "X1", "100", "2023-01-01"},
		{"", "", "", ""},
		{"P2", "X2"},
	}
	tbl, err := Shape(rows, []int{0, 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Position Portfolio", "Position ISIN", "Valuation Value", "Valuation Date"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"P2", "X2", "", ""}, tbl.Rows[1])
}

func TestShapeHeaderBeyondData(t *testing.T) {
	_, err := Shape([][]string{{"a"}}, []int{2}, nil)
	assert.Error(t, err)
}
