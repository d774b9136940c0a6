package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srccompiler/internal/datasource/file"
	"srccompiler/internal/dialect"
	"srccompiler/internal/parser/xlsx"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "pos.csv", "Portfolio|Qty\nP1|1\n")
	got, err := Load(context.Background(), file.NewLocal(path), Request{
		Encodings:  dialect.DefaultEncodings,
		Delimiters: dialect.DefaultDelimiters,
	})
	require.NoError(t, err)
	assert.Equal(t, '|', got.Dialect.Delimiter)
	assert.Equal(t, []string{"Portfolio", "Qty"}, got.Table.Header)
	assert.Len(t, got.Fingerprint, 16)
}

func TestLoadFingerprintIsStable(t *testing.T) {
	a := Fingerprint([]byte("same bytes"))
	b := Fingerprint([]byte("same bytes"))
	c := Fingerprint([]byte("other bytes"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(context.Background(), file.NewLocal(filepath.Join(t.TempDir(), "gone.csv")), Request{})
	assert.True(t, errors.Is(err, ErrMissing))
}

func TestLoadUnsupportedType(t *testing.T) {
	_, err := Load(context.Background(), file.NewLocal("x"), Request{Type: "parquet"})
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestLoadBrokenWorkbook(t *testing.T) {
	path := writeFile(t, "broken.xlsx", "not a zip")
	got, err := Load(context.Background(), file.NewLocal(path), Request{Type: "XLSX"})
	assert.Error(t, err)
	assert.NotEmpty(t, got.Fingerprint)
}

func TestLoadTextFileAsDelimited(t *testing.T) {
	path := writeFile(t, "flows.txt", "Depot;Betrag\nP1;1,5\n")
	got, err := Load(context.Background(), file.NewLocal(path), Request{
		Type:       "TXT",
		Encodings:  dialect.DefaultEncodings,
		Delimiters: dialect.DefaultDelimiters,
	})
	require.NoError(t, err)
	assert.Equal(t, ';', got.Dialect.Delimiter)
	assert.Equal(t, [][]string{{"P1", "1,5"}}, got.Table.Rows)
}

func TestLoadLegacyWorkbook(t *testing.T) {
	path := filepath.Join("..", "parser", "xlsx", "testdata", "holdings.xls")
	for _, typ := range []string{"xls", "xlsx"} {
		t.Run(typ, func(t *testing.T) {
			got, err := Load(context.Background(), file.NewLocal(path), Request{
				Type:  typ,
				Sheet: xlsx.Options{HeaderRows: []int{1}},
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"Depot", "Valuta", "ISIN", "Stück"}, got.Table.Header)
			assert.Len(t, got.Table.Rows, 2)
		})
	}
}

func TestNormalizeType(t *testing.T) {
	for in, want := range map[string]string{"": TypeCSV, " TXT ": TypeCSV, "tsv": TypeCSV, "XLS": TypeXLS, "pdf": TypePDF} {
		assert.Equal(t, want, NormalizeType(in), in)
	}
}
