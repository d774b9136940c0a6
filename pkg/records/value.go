package records

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/golang-sql/civil"
)

// Date is an optional calendar date. An invalid Date means "no date".
type Date = sql.Null[civil.Date]

// NewDate returns a valid Date holding d.
func NewDate(d civil.Date) Date { return Date{V: d, Valid: true} }

// Populated reports whether v carries a value. Text counts when it is
// non-empty after trimming; optional values count when valid.
func Populated(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case Date:
		return t.Valid
	case sql.NullFloat64:
		return t.Valid
	case sql.NullInt64:
		return t.Valid
	default:
		return true
	}
}

// Text renders v for delimited-text output. Dates use ISO form and invalid
// values render empty.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case Date:
		if !t.Valid {
			return ""
		}
		return t.V.String()
	case sql.NullFloat64:
		if !t.Valid {
			return ""
		}
		return strconv.FormatFloat(t.Float64, 'f', -1, 64)
	case sql.NullInt64:
		if !t.Valid {
			return ""
		}
		return strconv.FormatInt(t.Int64, 10)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

// Plain unwraps v into a database/sql friendly primitive: string, float64,
// int64, bool, civil.Date or nil. Backends convert civil.Date further when
// their driver has no native support for it.
func Plain(v any) any {
	switch t := v.(type) {
	case Date:
		if !t.Valid {
			return nil
		}
		return t.V
	case sql.NullFloat64:
		if !t.Valid {
			return nil
		}
		return t.Float64
	case sql.NullInt64:
		if !t.Valid {
			return nil
		}
		return t.Int64
	case int:
		return int64(t)
	default:
		return t
	}
}
