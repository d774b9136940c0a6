package pdf

import (
	"sort"
	"strings"

	"srccompiler/pkg/records"
)

// Fragment is a run of text placed at horizontal position X.
type Fragment struct {
	X float64
	S string
}

// Line is the text of one visual row, ordered left to right.
type Line []Fragment

// anchorSlack lets a cell start slightly left of its header label.
const anchorSlack = 2.0

// Extract detects a table in the lines of one page. The first line with at
// least two fragments is the header; its fragment positions become column
// anchors. Later lines with at least two fragments are data rows whose
// fragments are assigned to the nearest anchor at or left of them. ok is
// false when no header with at least one data row is found.
func Extract(lines []Line) (t records.Table, ok bool) {
	start := -1
	for i, l := range lines {
		if len(nonEmpty(l)) >= 2 {
			start = i
			break
		}
	}
	if start < 0 {
		return records.Table{}, false
	}

	head := nonEmpty(lines[start])
	anchors := make([]float64, len(head))
	t.Header = make([]string, len(head))
	for i, f := range head {
		anchors[i] = f.X
		t.Header[i] = f.S
	}

	for _, l := range lines[start+1:] {
		frags := nonEmpty(l)
		if len(frags) < 2 {
			continue
		}
		row := make([]string, len(anchors))
		for _, f := range frags {
			c := column(anchors, f.X)
			if row[c] == "" {
				row[c] = f.S
			} else {
				row[c] += " " + f.S
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return records.Table{}, false
	}
	return t, true
}

func column(anchors []float64, x float64) int {
	i := sort.Search(len(anchors), func(i int) bool { return anchors[i] > x+anchorSlack })
	if i == 0 {
		return 0
	}
	return i - 1
}

func nonEmpty(l Line) Line {
	out := make(Line, 0, len(l))
	for _, f := range l {
		if s := strings.TrimSpace(f.S); s != "" {
			out = append(out, Fragment{X: f.X, S: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// Concat stacks tables by header label. Columns keep first-seen order; a
// label missing from a table leaves its cells empty.
func Concat(tables []records.Table) records.Table {
	var out records.Table
	pos := make(map[string]int)
	for _, t := range tables {
		for _, h := range t.Header {
			if _, ok := pos[h]; !ok {
				pos[h] = len(out.Header)
				out.Header = append(out.Header, h)
			}
		}
	}
	for _, t := range tables {
		for _, r := range t.Rows {
			row := make([]string, len(out.Header))
			for i, h := range t.Header {
				if i < len(r) {
					row[pos[h]] = r[i]
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
