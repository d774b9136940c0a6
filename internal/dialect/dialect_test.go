package dialect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatesPromotesOverrides(t *testing.T) {
	got := Candidates([]string{"utf-8", "cp1252", "latin1"}, []string{"latin1", "utf-16", "latin1"})
	assert.Equal(t, []string{"latin1", "utf-16", "utf-8", "cp1252"}, got)

	got = Candidates([]string{",", ";"}, nil)
	assert.Equal(t, []string{",", ";"}, got)
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{",": ',', ";": ';', "\t": '\t', `\t`: '\t', "TAB": '\t', "|": '|'} {
		got, err := ParseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDelimiter(";;")
	assert.Error(t, err)
}

func TestResolveSniffsUnderFirstEncoding(t *testing.T) {
	data := []byte("Portfolio;Value date;Qty\nP1;2023-01-01;10\nP2;2023-01-02;20\n")
	tbl, d, err := Resolve(data, []string{"utf-8"}, []string{",", ";"})
	require.NoError(t, err)
	assert.True(t, d.Sniffed)
	assert.Equal(t, ';', d.Delimiter)
	assert.Equal(t, []string{"Portfolio", "Value date", "Qty"}, tbl.Header)
	assert.Len(t, tbl.Rows, 2)
}

func TestResolveFallsThroughToSingleByteEncoding(t *testing.T) {
	// "Qté" in windows-1252 is not valid UTF-8.
	data := []byte("Name,Qt\xe9\nA,1\n")
	tbl, d, err := Resolve(data, []string{"utf-8", "cp1252"}, []string{","})
	require.NoError(t, err)
	assert.Equal(t, "cp1252", d.Encoding)
	assert.False(t, d.Sniffed)
	assert.Equal(t, "Qté", tbl.Header[1])
}

func TestResolveReportsEveryAttempt(t *testing.T) {
	data := []byte("a,b\n1,2,3\n\xff")
	_, _, err := Resolve(data, []string{"utf-8", "latin1"}, []string{","})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDialect))

	var re *ResolveError
	require.True(t, errors.As(err, &re))
	// utf-8 decode failure plus latin1/',' parse failure.
	assert.Len(t, re.Errors(), 2)
}

func TestSniffNeedsConsistentWidth(t *testing.T) {
	_, ok := Sniff("a;b\n1;2;3\n", []rune{';'})
	assert.False(t, ok)

	_, ok = Sniff("date\n2023-01-01\n", []rune{',', ';'})
	assert.False(t, ok)

	d, ok := Sniff("a|b\n1|2\n", []rune{',', '|'})
	assert.True(t, ok)
	assert.Equal(t, '|', d)
}

func TestLookup(t *testing.T) {
	e, err := Lookup("UTF_8")
	require.NoError(t, err)
	assert.Nil(t, e)

	for _, name := range []string{"cp1252", "latin1", "ISO-8859-1", "windows-1250"} {
		e, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, e, name)
	}

	_, err = Lookup("klingon")
	assert.Error(t, err)
}

func TestDecodeStrictUTF8(t *testing.T) {
	_, err := Decode([]byte("ok\xff"), "utf-8")
	assert.Error(t, err)

	s, err := Decode([]byte("caf\xe9"), "latin1")
	require.NoError(t, err)
	assert.Equal(t, "café", s)
}
