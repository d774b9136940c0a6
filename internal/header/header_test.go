package header

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Portfolio number ", "portfolio number"},
		{"Evaluation\u00a0date", "evaluation date"},
		{"Quantity  /  Amount", "quantity / amount"},
		{"ISIN", "isin"},
		{"\u00a0Value end\u00a0", "value end"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeLabel(tc.in))
		})
	}
}

func TestNormalizeKeepsOrderAndDuplicates(t *testing.T) {
	got := Normalize([]string{"B", "a", " b "})
	assert.Equal(t, []string{"b", "a", "b"}, got)
}

func TestIndexAliasSymmetry(t *testing.T) {
	aliases := map[string][]string{
		"portfolio_nk": {"Portfolio number", "Portfolio"},
		"value_date":   {"Evaluation date", "Value date"},
	}
	idx, err := NewIndex(aliases)
	require.NoError(t, err)

	for canon, list := range aliases {
		for _, a := range append([]string{canon}, list...) {
			for _, spelling := range []string{a, "  " + a + " ", upper(a)} {
				got, ok := idx.Lookup(NormalizeLabel(spelling))
				require.True(t, ok, "alias %q", spelling)
				assert.Equal(t, canon, got, "alias %q", spelling)
			}
		}
	}
}

func TestIndexRejectsCollisions(t *testing.T) {
	_, err := NewIndex(map[string][]string{
		"value_date":      {"Date"},
		"evaluation_date": {" date "},
	})
	var ce *CollisionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "date", ce.Alias)
}

func TestResolveFirstMatchWins(t *testing.T) {
	idx, err := NewIndex(map[string][]string{
		"portfolio_nk": {"portfolio number", "portfolio"},
		"qty_raw":      {"quantity / amount"},
	})
	require.NoError(t, err)

	headers := Normalize([]string{"Portfolio", "Quantity / Amount", "Portfolio number", "Unmapped"})
	got := idx.Resolve(headers)

	require.Len(t, got, 2)
	assert.Equal(t, Binding{Canonical: "portfolio_nk", Column: 0, Header: "portfolio"}, got[0])
	assert.Equal(t, Binding{Canonical: "qty_raw", Column: 1, Header: "quantity / amount"}, got[1])
}

func upper(s string) string {
	b := []rune(s)
	for i, r := range b {
		if r >= 'a' && r <= 'z' {
			b[i] = r - 32
		}
	}
	return string(b)
}
