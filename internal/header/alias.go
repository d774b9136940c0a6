package header

import (
	"fmt"
	"sort"
)

// Binding ties a canonical field to the source column that carries it.
type Binding struct {
	Canonical string
	Column    int    // position in the source header
	Header    string // normalized header at that position
}

// CollisionError reports an alias claimed by more than one canonical field.
type CollisionError struct {
	Alias      string
	Canonicals []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("alias %q is claimed by canonical fields %v", e.Alias, e.Canonicals)
}

// Index is the inverse alias table: normalized alias -> canonical name.
type Index struct {
	byAlias map[string]string
}

// NewIndex builds the inverse index from canonical -> aliases. Every canonical
// name is an alias of itself. All aliases are normalized with NormalizeLabel.
//
// An alias that maps to two different canonical names is ambiguous and
// reported as a *CollisionError; repeating an alias under the same canonical
// name is harmless.
func NewIndex(aliases map[string][]string) (*Index, error) {
	idx := &Index{byAlias: make(map[string]string)}

	// Deterministic iteration so the reported collision is stable.
	canon := make([]string, 0, len(aliases))
	for c := range aliases {
		canon = append(canon, c)
	}
	sort.Strings(canon)

	for _, c := range canon {
		for _, a := range append([]string{c}, aliases[c]...) {
			key := NormalizeLabel(a)
			if key == "" {
				continue
			}
			if prev, ok := idx.byAlias[key]; ok && prev != c {
				return nil, &CollisionError{Alias: key, Canonicals: []string{prev, c}}
			}
			idx.byAlias[key] = c
		}
	}
	return idx, nil
}

// Lookup returns the canonical name for a normalized header.
func (x *Index) Lookup(normalized string) (string, bool) {
	c, ok := x.byAlias[normalized]
	return c, ok
}

// Resolve maps canonical names onto normalized headers. The first column that
// matches a canonical name wins; later spellings of the same field are
// ignored. Bindings are returned in column order. Canonical names with no
// matching header are absent from the result.
func (x *Index) Resolve(headers []string) []Binding {
	seen := make(map[string]bool)
	var out []Binding
	for i, h := range headers {
		c, ok := x.byAlias[h]
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, Binding{Canonical: c, Column: i, Header: h})
	}
	return out
}
