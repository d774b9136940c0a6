package csv

import "strings"

// byteOrderMark survives decoding when a file was saved as UTF-8 with a BOM
// and then read through a single-byte code page fallback.
const byteOrderMark = "\uFEFF"

// cleanHeader drops a leading byte order mark from the first label. Labels
// repeat the mark occasionally in spreadsheet exports, so it is removed from
// the start of every label.
func cleanHeader(labels []string) []string {
	for i, l := range labels {
		labels[i] = strings.TrimLeft(l, byteOrderMark)
	}
	return labels
}
