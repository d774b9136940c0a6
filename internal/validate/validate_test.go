package validate

import (
	"testing"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srccompiler/pkg/records"
)

var jan1 = records.NewDate(civil.Date{Year: 2023, Month: 1, Day: 1})

func frame(cols []string, rows ...records.Record) records.Frame {
	f := records.NewFrame(cols, len(rows))
	copy(f.Rows, rows)
	return f
}

func TestRequiredAnyAcceptsEitherDate(t *testing.T) {
	f := frame([]string{"portfolio_nk", "value_date", "evaluation_date"},
		records.Record{"portfolio_nk": "P1", "value_date": records.Date{}, "evaluation_date": jan1},
		records.Record{"portfolio_nk": "P2", "value_date": records.Date{}, "evaluation_date": records.Date{}},
		records.Record{"portfolio_nk": "P3", "value_date": jan1, "evaluation_date": records.Date{}},
	)
	rules := Rules{
		Required:    []string{"portfolio_nk"},
		RequiredAny: [][]string{{"value_date", "evaluation_date"}},
		Fallbacks:   DefaultFallbacks,
	}
	valid, invalid := Partition(f, rules)

	require.Equal(t, 2, valid.Len())
	require.Equal(t, 1, invalid.Len())
	assert.Equal(t, "P2", invalid.Rows[0]["portfolio_nk"])
	assert.Equal(t, []int{0, 2}, valid.Origin)
	assert.Equal(t, []int{1}, invalid.Origin)

	// P1's value_date was promoted from evaluation_date.
	assert.Equal(t, jan1, valid.Rows[0]["value_date"])
}

func TestFallbackSatisfiesValueDateRequirement(t *testing.T) {
	f := frame([]string{"portfolio_nk", "evaluation_date"},
		records.Record{"portfolio_nk": "P1", "evaluation_date": jan1},
	)
	valid, invalid := Partition(f, Rules{
		Required:  []string{"portfolio_nk", "value_date"},
		Fallbacks: DefaultFallbacks,
	})
	assert.Equal(t, 1, valid.Len())
	assert.Equal(t, 0, invalid.Len())
	assert.True(t, valid.Has("value_date"))
}

func TestAbsentRequiredFieldRejectsEveryRow(t *testing.T) {
	f := frame([]string{"portfolio_nk"},
		records.Record{"portfolio_nk": "P1"},
		records.Record{"portfolio_nk": "P2"},
	)
	valid, invalid := Partition(f, Rules{Required: []string{"isin"}})
	assert.Equal(t, 0, valid.Len())
	assert.Equal(t, 2, invalid.Len())
	assert.Equal(t, []string{"portfolio_nk", "isin"}, invalid.Columns)
	assert.Equal(t, []string{"portfolio_nk"}, f.Columns, "input frame columns untouched")
}

func TestBlankTextIsNotPopulated(t *testing.T) {
	f := frame([]string{"portfolio_nk", "isin"},
		records.Record{"portfolio_nk": "  ", "isin": "X"},
		records.Record{"portfolio_nk": "P", "isin": ""},
	)
	valid, invalid := Partition(f, Rules{
		RequiredAny: [][]string{{"portfolio_nk"}, {"isin", "cusip"}},
	})
	assert.Equal(t, 0, valid.Len())
	assert.Equal(t, 2, invalid.Len())
}

func TestNoRulesKeepsEverything(t *testing.T) {
	f := frame([]string{"a"}, records.Record{"a": ""}, records.Record{})
	valid, invalid := Partition(f, Rules{})
	assert.Equal(t, 2, valid.Len())
	assert.Equal(t, 0, invalid.Len())
}
