package slice

import "strings"

// SetFilter is a multi-valued "field IN (...)" constraint that is either
// absent or present with at least one value. An empty input can only ever
// produce the absent state, so a caller passing an empty list never ends up
// with a constraint that matches nothing.
type SetFilter[V comparable] struct {
	values []V
}

// In builds a set filter from values, dropping duplicates while keeping the
// first-seen order. No values means absent.
func In[V comparable](values ...V) SetFilter[V] {
	if len(values) == 0 {
		return SetFilter[V]{}
	}
	seen := make(map[V]struct{}, len(values))
	out := make([]V, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return SetFilter[V]{values: out}
}

// Absent returns the empty filter explicitly.
func Absent[V comparable]() SetFilter[V] { return SetFilter[V]{} }

// Present reports whether the filter constrains anything.
func (f SetFilter[V]) Present() bool { return len(f.values) > 0 }

// Len is the number of distinct values.
func (f SetFilter[V]) Len() int { return len(f.values) }

// Values returns a copy of the distinct values.
func (f SetFilter[V]) Values() []V {
	if len(f.values) == 0 {
		return nil
	}
	out := make([]V, len(f.values))
	copy(out, f.values)
	return out
}

func (f SetFilter[V]) members() []any {
	out := make([]any, len(f.values))
	for i, v := range f.values {
		out[i] = v
	}
	return out
}

// SearchField names one of a schema's searchable columns, e.g. "NAME".
type SearchField string

// normalizeField upper-cases and trims so "name" and " NAME " are the same field.
func normalizeField(s string) SearchField {
	return SearchField(strings.ToUpper(strings.TrimSpace(s)))
}

// Search is a case-insensitive substring match of one word on one column.
// It is only active when both the field and the word are non-blank.
type Search struct {
	field SearchField
	word  string
}

// Present reports whether the search constrains anything.
func (s Search) Present() bool { return s.field != "" && s.word != "" }

// Field is the normalized search field.
func (s Search) Field() SearchField { return s.field }

// Word is the trimmed search word.
func (s Search) Word() string { return s.word }
