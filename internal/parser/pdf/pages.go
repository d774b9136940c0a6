package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePages expands a page selection such as "1,3-5" into 1-based page
// numbers in the order given. An empty selection means page 1.
func ParsePages(sel string) ([]int, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return []int{1}, nil
	}
	var out []int
	for _, chunk := range strings.Split(sel, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(chunk, "-")
		a, err := pageNumber(lo)
		if err != nil {
			return nil, fmt.Errorf("pdf: pages %q: %w", sel, err)
		}
		if !isRange {
			out = append(out, a)
			continue
		}
		b, err := pageNumber(hi)
		if err != nil {
			return nil, fmt.Errorf("pdf: pages %q: %w", sel, err)
		}
		if b < a {
			return nil, fmt.Errorf("pdf: pages %q: descending range %d-%d", sel, a, b)
		}
		for p := a; p <= b; p++ {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("pdf: pages %q: empty selection", sel)
	}
	return out, nil
}

func pageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad page %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("page %d out of range", n)
	}
	return n, nil
}
