// Package csv reads delimited text into a records.Table. Parsing is strict
// enough that a wrong delimiter or a corrupt file is reported as an error, so
// callers can cascade through dialect candidates.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"srccompiler/pkg/records"
)

// ErrNoHeader is returned when the input holds no header row.
var ErrNoHeader = errors.New("csv: no header row")

// Options configures the parser. Zero values are usable.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from every cell.
	TrimSpace bool

	// MaxRows stops reading after that many data rows when > 0.
	MaxRows int
}

// Parser parses delimited text according to Options. It is safe to reuse
// across inputs.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads a header row followed by data rows. Rows shorter than the
// header are padded with empty cells; a row wider than the header is an
// error, as is a malformed quote.
func (p *Parser) Parse(r io.Reader) (records.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = p.opt.Comma
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return records.Table{}, ErrNoHeader
	}
	if err != nil {
		return records.Table{}, fmt.Errorf("csv: header: %w", err)
	}
	header = cleanHeader(header)
	if p.opt.TrimSpace {
		trimAll(header)
	}

	t := records.Table{Header: header}
	width := len(header)
	for p.opt.MaxRows <= 0 || len(t.Rows) < p.opt.MaxRows {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records.Table{}, fmt.Errorf("csv: %w", err)
		}
		if len(rec) > width {
			line, _ := cr.FieldPos(0)
			return records.Table{}, fmt.Errorf("csv: line %d: expected %d fields, saw %d", line, width, len(rec))
		}
		if p.opt.TrimSpace {
			trimAll(rec)
		}
		t.Rows = append(t.Rows, fitRowToWidth(rec, width))
	}
	return t, nil
}

// ParseString is Parse over an in-memory string.
func (p *Parser) ParseString(s string) (records.Table, error) {
	return p.Parse(strings.NewReader(s))
}

// fitRowToWidth pads short rows with empty cells.
func fitRowToWidth(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

func trimAll(cells []string) {
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
}
