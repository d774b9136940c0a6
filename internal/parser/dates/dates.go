// Package dates resolves heterogeneous date text (spreadsheet serials,
// explicit strftime formats and free-form input) to calendar dates.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/golang-sql/civil"
	"github.com/ncruces/go-strftime"
	"github.com/xuri/excelize/v2"

	"srccompiler/pkg/records"
)

// Spreadsheet serials inside [SerialMin, SerialMax) are day counts from the
// 1899-12-30 epoch. SerialMin is 1970-01-01.
const (
	SerialMin = 25569
	SerialMax = 80000
)

// DefaultFormats is used when the configuration lists no date formats.
var DefaultFormats = []string{"%Y-%m-%d", "%d.%m.%Y", "%d/%m/%Y", "%m/%d/%Y", "%Y%m%d"}

// trailingFormats are always tried after the configured ones.
var trailingFormats = []string{
	"%Y-%m-%d %H:%M:%S",
	"%d.%m.%Y %H:%M:%S",
	"%d/%m/%Y %H:%M:%S",
	"%Y.%m.%d %H.%M.%S",
}

// Parser converts raw values with a fixed precedence: serial numbers, then
// explicit formats in order, then free-form parsing honoring DayFirst.
type Parser struct {
	formats  []string
	dayFirst bool
}

// NewParser checks the strftime formats and appends the fixed datetime
// formats that are always tried last.
func NewParser(formats []string, dayFirst bool) (*Parser, error) {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	p := &Parser{dayFirst: dayFirst}
	seen := make(map[string]bool)
	for _, f := range append(append([]string{}, formats...), trailingFormats...) {
		if seen[f] {
			continue
		}
		seen[f] = true
		if _, err := strftime.Layout(f); err != nil {
			return nil, fmt.Errorf("date format %q: %w", f, err)
		}
		p.formats = append(p.formats, f)
	}
	return p, nil
}

// Parse resolves every value. The result has the same length as values;
// values that fail every step are invalid dates.
func (p *Parser) Parse(values []string) []records.Date {
	out := make([]records.Date, len(values))
	trimmed := make([]string, len(values))
	remain := 0

	for i, v := range values {
		trimmed[i] = strings.TrimSpace(v)
		if d, ok := serial(trimmed[i]); ok {
			out[i] = records.NewDate(d)
			continue
		}
		remain++
	}

	for _, f := range p.formats {
		if remain == 0 {
			break
		}
		for i, v := range trimmed {
			if out[i].Valid || v == "" {
				continue
			}
			if t, err := strftime.Parse(f, v); err == nil {
				out[i] = records.NewDate(civil.DateOf(t))
				remain--
			}
		}
	}

	if remain > 0 {
		for i, v := range trimmed {
			if out[i].Valid || v == "" {
				continue
			}
			if d, ok := p.freeForm(v); ok {
				out[i] = records.NewDate(d)
			}
		}
	}
	return out
}

// ParseOne is Parse for a single value.
func (p *Parser) ParseOne(v string) records.Date {
	return p.Parse([]string{v})[0]
}

func (p *Parser) freeForm(v string) (civil.Date, bool) {
	t, err := dateparse.ParseIn(v, time.UTC, dateparse.PreferMonthFirst(!p.dayFirst))
	if err != nil {
		return civil.Date{}, false
	}
	return civil.DateOf(t), true
}

func serial(v string) (civil.Date, bool) {
	if v == "" {
		return civil.Date{}, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < SerialMin || f >= SerialMax {
		return civil.Date{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return civil.Date{}, false
	}
	return civil.DateOf(t), true
}
