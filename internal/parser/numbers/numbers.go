// Package numbers converts locale-ambiguous numeric text into float values.
package numbers

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
)

// Clean rewrites s into a form strconv can parse, or returns "" when nothing
// numeric is left. NBSP and surrounding whitespace are removed, a fully
// parenthesized value becomes negative and every rune other than digits,
// ',', '.' and '-' is dropped. When both separators are present the one that
// occurs last is the decimal point; a lone comma is a decimal comma.
func Clean(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", ""))
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = "-" + s[1:len(s)-1]
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	v := b.String()

	// "1.234,56" must read as 1234.56, so the later separator is decimal.
	comma := strings.LastIndexByte(v, ',')
	dot := strings.LastIndexByte(v, '.')
	switch {
	case comma >= 0 && dot >= 0 && dot > comma:
		v = strings.ReplaceAll(v, ",", "")
	case comma >= 0 && dot >= 0:
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	case comma >= 0:
		v = strings.ReplaceAll(v, ",", ".")
	}
	return v
}

// Parse converts one raw value. Unparseable input yields an invalid
// NullFloat64, never an error.
func Parse(s string) sql.NullFloat64 {
	v := Clean(s)
	if v == "" {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// ParseAll applies Parse to every value.
func ParseAll(values []string) []sql.NullFloat64 {
	out := make([]sql.NullFloat64, len(values))
	for i, v := range values {
		out[i] = Parse(v)
	}
	return out
}

// ParseInt coerces a plain numeric value to a nullable integer. "3" and
// "3.0" are both 3. Separators are not interpreted, and values with a
// fractional part are rejected.
func ParseInt(s string) sql.NullInt64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}
}
