package dialect

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// sniffRecords is how many leading records Sniff inspects.
const sniffRecords = 20

// Sniff infers the delimiter from the leading records of text. A candidate
// qualifies when it splits every sampled record into the same number of
// fields, and that number is greater than one. The earliest qualifying
// candidate wins.
func Sniff(text string, candidates []rune) (rune, bool) {
	for _, d := range candidates {
		if consistentWidth(text, d) > 1 {
			return d, true
		}
	}
	return 0, false
}

func consistentWidth(text string, d rune) int {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = d
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	width, n := 0, 0
	for n < sniffRecords {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0
		}
		if n == 0 {
			width = len(rec)
		} else if len(rec) != width {
			return 0
		}
		n++
	}
	if n == 0 {
		return 0
	}
	return width
}
