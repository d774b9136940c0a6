// Package dialect discovers the text encoding and field delimiter of a
// delimited source file by cascading through configured candidates.
package dialect

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/multierr"

	pcsv "srccompiler/internal/parser/csv"
	"srccompiler/pkg/records"
)

// ErrNoDialect is returned when no (encoding, delimiter) pair parses.
var ErrNoDialect = errors.New("dialect: no viable encoding/delimiter")

// Default candidate lists.
var (
	DefaultEncodings  = []string{"utf-8", "cp1252", "latin1"}
	DefaultDelimiters = []string{",", ";", "|", "\t"}
)

// Dialect is the combination that successfully parsed a source.
type Dialect struct {
	Encoding  string
	Delimiter rune
	Sniffed   bool
}

func (d Dialect) String() string {
	return fmt.Sprintf("%s/%q", d.Encoding, d.Delimiter)
}

// Candidates returns override followed by the entries of base that are not in
// override. Duplicates are dropped; first occurrence wins.
func Candidates(base, override []string) []string {
	seen := make(map[string]bool, len(base)+len(override))
	out := make([]string, 0, len(base)+len(override))
	for _, list := range [][]string{override, base} {
		for _, c := range list {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// ParseDelimiter converts a configured delimiter to a rune. "\t", "\\t" and
// "tab" all mean a tab.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("dialect: delimiter %q is not a single character", s)
	}
	return r, nil
}

// Resolve decodes and parses data. It first tries the sniffed delimiter under
// the first encoding, then every (encoding, delimiter) pair with encodings in
// the outer loop. The first strict parse that succeeds wins. When none does,
// the returned *ResolveError matches ErrNoDialect and holds every attempt's
// error.
func Resolve(data []byte, encodings, delimiters []string) (records.Table, Dialect, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	if len(delimiters) == 0 {
		delimiters = DefaultDelimiters
	}

	delims := make([]rune, 0, len(delimiters))
	var errs error
	for _, d := range delimiters {
		r, err := ParseDelimiter(d)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		delims = append(delims, r)
	}

	decoded := make(map[string]string, len(encodings))
	decodeErr := make(map[string]error, len(encodings))
	decode := func(enc string) (string, error) {
		if s, ok := decoded[enc]; ok {
			return s, nil
		}
		if err, ok := decodeErr[enc]; ok {
			return "", err
		}
		s, err := Decode(data, enc)
		if err != nil {
			decodeErr[enc] = err
			errs = multierr.Append(errs, err)
			return "", err
		}
		decoded[enc] = s
		return s, nil
	}

	if text, err := decode(encodings[0]); err == nil {
		if d, ok := Sniff(text, delims); ok {
			t, err := parse(text, d)
			if err == nil {
				return t, Dialect{Encoding: encodings[0], Delimiter: d, Sniffed: true}, nil
			}
			errs = multierr.Append(errs, fmt.Errorf("sniffed %s/%q: %w", encodings[0], d, err))
		}
	}

	for _, enc := range encodings {
		text, err := decode(enc)
		if err != nil {
			continue
		}
		for _, d := range delims {
			t, err := parse(text, d)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s/%q: %w", enc, d, err))
				continue
			}
			return t, Dialect{Encoding: enc, Delimiter: d}, nil
		}
	}
	return records.Table{}, Dialect{}, &ResolveError{Attempts: errs}
}

func parse(text string, d rune) (records.Table, error) {
	return pcsv.NewParser(pcsv.Options{Comma: d}).Parse(strings.NewReader(text))
}

// ResolveError carries every failed attempt of a Resolve call. It matches
// ErrNoDialect under errors.Is.
type ResolveError struct {
	Attempts error // combined with multierr
}

func (e *ResolveError) Error() string {
	if e.Attempts == nil {
		return ErrNoDialect.Error()
	}
	return ErrNoDialect.Error() + ": " + e.Attempts.Error()
}

func (e *ResolveError) Is(target error) bool { return target == ErrNoDialect }

func (e *ResolveError) Unwrap() error { return e.Attempts }

// Errors lists the individual attempt failures.
func (e *ResolveError) Errors() []error { return multierr.Errors(e.Attempts) }
