// Package source reads one configured extract into a raw records.Table,
// dispatching on file type.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zeebo/xxh3"

	"srccompiler/internal/datasource"
	"srccompiler/internal/dialect"
	"srccompiler/internal/parser/pdf"
	"srccompiler/internal/parser/xlsx"
	"srccompiler/pkg/records"
)

// File types.
const (
	TypeCSV  = "csv"
	TypeXLSX = "xlsx"
	TypeXLS  = "xls"
	TypePDF  = "pdf"
)

// ErrMissing is returned when the source does not exist.
var ErrMissing = errors.New("source: missing")

// ErrUnsupportedType is returned for an unknown file type.
var ErrUnsupportedType = errors.New("source: unsupported file type")

// Request describes how to read one extract.
type Request struct {
	Type       string
	Encodings  []string // candidate order, overrides already promoted
	Delimiters []string
	Sheet      xlsx.Options
	PDFPages   string
}

// Loaded is the outcome of a successful read.
type Loaded struct {
	Table       records.Table
	Dialect     dialect.Dialect // zero for spreadsheets and PDFs
	Fingerprint string          // xxh3 of the raw bytes, hex
	Size        int
}

// NormalizeType lower-cases t. Delimited text spellings ("", txt, tsv) map
// to csv.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	switch t {
	case "", "txt", "tsv":
		return TypeCSV
	}
	return t
}

// Load reads src according to req.
func Load(ctx context.Context, src datasource.Source, req Request) (Loaded, error) {
	typ := NormalizeType(req.Type)
	switch typ {
	case TypeCSV, TypeXLSX, TypeXLS, TypePDF:
	default:
		return Loaded{}, fmt.Errorf("%w %q", ErrUnsupportedType, req.Type)
	}

	data, err := datasource.ReadAll(ctx, src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{}, fmt.Errorf("%w: %w", ErrMissing, err)
		}
		return Loaded{}, err
	}
	out := Loaded{Fingerprint: Fingerprint(data), Size: len(data)}

	switch typ {
	case TypeCSV:
		out.Table, out.Dialect, err = dialect.Resolve(data, req.Encodings, req.Delimiters)
	case TypeXLSX, TypeXLS:
		// Extracts are often renamed, so the container decides the reader.
		if xlsx.IsLegacy(data) {
			out.Table, err = xlsx.ReadLegacy(data, req.Sheet)
		} else {
			out.Table, err = xlsx.Read(bytes.NewReader(data), req.Sheet)
		}
	case TypePDF:
		out.Table, err = pdf.Read(data, req.PDFPages)
	}
	return out, err
}

// Fingerprint hashes raw source bytes.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}
