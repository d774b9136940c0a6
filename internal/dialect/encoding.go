package dialect

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// aliases covers the spellings used in configuration files that the IANA
// index does not know.
var aliases = map[string]encoding.Encoding{
	"cp1250":  charmap.Windows1250,
	"cp1251":  charmap.Windows1251,
	"cp1252":  charmap.Windows1252,
	"cp1253":  charmap.Windows1253,
	"cp1254":  charmap.Windows1254,
	"cp1257":  charmap.Windows1257,
	"cp437":   charmap.CodePage437,
	"cp850":   charmap.CodePage850,
	"latin1":  charmap.ISO8859_1,
	"latin-1": charmap.ISO8859_1,
	"l1":      charmap.ISO8859_1,
	"latin2":  charmap.ISO8859_2,
	"latin9":  charmap.ISO8859_15,
	"utf-16":  unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
}

// isUTF8 reports whether name denotes UTF-8, with or without signature.
func isUTF8(name string) bool {
	switch canonicalName(name) {
	case "utf-8", "utf8", "utf-8-sig", "utf8-sig":
		return true
	}
	return false
}

func canonicalName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// Lookup resolves an encoding name. UTF-8 names return a nil Encoding; UTF-8
// input is validated by Decode instead of transcoded.
func Lookup(name string) (encoding.Encoding, error) {
	if isUTF8(name) {
		return nil, nil
	}
	key := canonicalName(name)
	if e, ok := aliases[key]; ok {
		return e, nil
	}
	e, err := ianaindex.IANA.Encoding(key)
	if err != nil {
		return nil, fmt.Errorf("dialect: unknown encoding %q: %w", name, err)
	}
	if e == nil {
		return nil, fmt.Errorf("dialect: unsupported encoding %q", name)
	}
	return e, nil
}

// Decode converts data to a UTF-8 string. UTF-8 decoding is strict: invalid
// byte sequences are an error so that a cascade can move on to a single-byte
// encoding.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("dialect: %s: invalid byte sequence at offset %d", name, invalidOffset(data))
		}
		return string(data), nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("dialect: %s: %w", name, err)
	}
	return string(out), nil
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
