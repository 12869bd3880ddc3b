package slice

import (
	"fmt"
	"strings"
)

// Criteria is one slice query: a page request plus the filters present for
// it. It is immutable once NewCriteria returns; accessors hand out copies.
type Criteria struct {
	schema         Schema
	page           PageRequest
	sets           []setConstraint
	search         Search
	includeDeleted bool
}

type setConstraint struct {
	dimension string
	column    string
	typed     any   // []V as supplied, for drivers that bind arrays natively
	members   []any // the same values boxed, for in-process evaluation
}

// Option adds one filter to a Criteria under construction.
type Option func(*Criteria) error

// NewCriteria composes a page request with filters against schema. Absent
// filters leave no trace; unknown dimensions or search fields fail with an
// error wrapping ErrContractViolation.
func NewCriteria(schema Schema, page PageRequest, opts ...Option) (Criteria, error) {
	if err := schema.Validate(); err != nil {
		return Criteria{}, err
	}
	c := Criteria{schema: schema, page: page}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&c); err != nil {
			return Criteria{}, err
		}
	}
	return c, nil
}

// WithIn constrains dimension to values. nil or empty values add nothing.
func WithIn[V comparable](dimension string, values []V) Option {
	return WithSet(dimension, In(values...))
}

// WithSet constrains dimension with a prepared set filter.
func WithSet[V comparable](dimension string, f SetFilter[V]) Option {
	return func(c *Criteria) error {
		col, ok := c.schema.Dimensions[dimension]
		if !ok {
			return fmt.Errorf("%w %q for %s", ErrUnknownDimension, dimension, c.schema.Name)
		}
		if !f.Present() {
			return nil
		}
		sc := setConstraint{dimension: dimension, column: col, typed: f.Values(), members: f.members()}
		for i, existing := range c.sets {
			if existing.dimension == dimension {
				c.sets[i] = sc
				return nil
			}
		}
		c.sets = append(c.sets, sc)
		return nil
	}
}

// WithSearch adds a case-insensitive substring search. It activates only when
// field and word are both non-blank, but a non-blank field is always checked
// against the schema's searchable columns.
func WithSearch(field, word string) Option {
	return func(c *Criteria) error {
		f := normalizeField(field)
		if f == "" {
			return nil
		}
		if _, ok := c.schema.SearchFields[f]; !ok {
			return fmt.Errorf("%w %q for %s", ErrUnknownSearchField, field, c.schema.Name)
		}
		w := strings.TrimSpace(word)
		if w == "" {
			return nil
		}
		c.search = Search{field: f, word: w}
		return nil
	}
}

// IncludeDeleted drops the standing soft-delete predicate.
func IncludeDeleted(include bool) Option {
	return func(c *Criteria) error {
		c.includeDeleted = include
		return nil
	}
}

// Schema is the entity schema the criteria was built for.
func (c Criteria) Schema() Schema { return c.schema }

// Page is the normalized page request.
func (c Criteria) Page() PageRequest { return c.page }

// Size is shorthand for Page().Size().
func (c Criteria) Size() int { return c.page.Size() }

// FetchSize is shorthand for Page().FetchSize().
func (c Criteria) FetchSize() int { return c.page.FetchSize() }

// Search returns the search filter; check Present before use.
func (c Criteria) Search() Search { return c.search }

// IncludesDeleted reports whether soft-deleted rows are visible.
func (c Criteria) IncludesDeleted() bool { return c.includeDeleted }

// Dimensions lists the present set-filter dimensions in the order added.
func (c Criteria) Dimensions() []string {
	out := make([]string, 0, len(c.sets))
	for _, s := range c.sets {
		out = append(out, s.dimension)
	}
	return out
}

// Members returns the values constraining dimension, if present.
func (c Criteria) Members(dimension string) ([]any, bool) {
	for _, s := range c.sets {
		if s.dimension == dimension {
			out := make([]any, len(s.members))
			copy(out, s.members)
			return out, true
		}
	}
	return nil, false
}

// Next returns the criteria for the slice following cursor.
func (c Criteria) Next(cursor Key) Criteria {
	next := c
	next.page = c.page.After(cursor)
	return next
}
