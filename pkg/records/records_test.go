package records

import (
	"database/sql"
	"testing"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePartitionKeepsOrderAndOrigin(t *testing.T) {
	f := NewFrame([]string{"a"}, 4)
	for i := range f.Rows {
		f.Rows[i]["a"] = string(rune('w' + i))
	}

	kept, dropped := f.Partition([]bool{true, false, true, false})

	require.Equal(t, 2, kept.Len())
	require.Equal(t, 2, dropped.Len())
	assert.Equal(t, []any{"w", "y"}, kept.Values("a"))
	assert.Equal(t, []int{0, 2}, kept.Origin)
	assert.Equal(t, []any{"x", "z"}, dropped.Values("a"))
	assert.Equal(t, []int{1, 3}, dropped.Origin)
}

func TestFrameSelectSkipsUnknownColumns(t *testing.T) {
	f := NewFrame([]string{"a", "b"}, 1)
	f.Rows[0]["a"] = "1"
	f.Rows[0]["b"] = "2"

	got := f.Select([]string{"b", "missing", "a"})

	assert.Equal(t, []string{"b", "a"}, got.Columns)
	got.Rows[0]["b"] = "changed"
	assert.Equal(t, "2", f.Rows[0]["b"], "Select must copy rows")
}

func TestPopulated(t *testing.T) {
	d := civil.Date{Year: 2023, Month: 1, Day: 1}
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"empty", "", false},
		{"blank", "  \t", false},
		{"text", " x ", true},
		{"date", NewDate(d), true},
		{"no_date", Date{}, false},
		{"float", sql.NullFloat64{Float64: 0, Valid: true}, true},
		{"no_float", sql.NullFloat64{}, false},
		{"bool_false", false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Populated(tc.v))
		})
	}
}

func TestTextAndPlain(t *testing.T) {
	d := civil.Date{Year: 2022, Month: 12, Day: 31}

	assert.Equal(t, "2022-12-31", Text(NewDate(d)))
	assert.Equal(t, "", Text(Date{}))
	assert.Equal(t, "-1234.56", Text(sql.NullFloat64{Float64: -1234.56, Valid: true}))
	assert.Equal(t, "7", Text(sql.NullInt64{Int64: 7, Valid: true}))

	assert.Equal(t, d, Plain(NewDate(d)))
	assert.Nil(t, Plain(sql.NullFloat64{}))
	assert.Equal(t, int64(3), Plain(3))
	assert.Equal(t, "x", Plain("x"))
}
