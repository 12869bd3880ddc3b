package slice

import "fmt"

// Schema describes how one entity is sliced: where it lives, which column is
// its position key, whether it is soft-deleted, which filter dimensions it
// accepts and which columns can be searched.
type Schema struct {
	// Name identifies the entity in logs and metrics (e.g. "tech_stack").
	Name  string
	Table string
	// PositionColumn holds the integer identifier used for ordering and cursors.
	PositionColumn string
	// SoftDeleteColumn is a nullable timestamp column; empty means rows are
	// hard-deleted and no standing predicate is added.
	SoftDeleteColumn string
	// Dimensions maps filter dimension names to columns.
	Dimensions map[string]string
	// SearchFields maps upper-case search field names to columns.
	SearchFields map[SearchField]string
}

// Validate checks the schema is complete enough to build queries from.
func (s Schema) Validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidSchema)
	case s.Table == "":
		return fmt.Errorf("%w: %s: table is required", ErrInvalidSchema, s.Name)
	case s.PositionColumn == "":
		return fmt.Errorf("%w: %s: position column is required", ErrInvalidSchema, s.Name)
	}
	for dim, col := range s.Dimensions {
		if dim == "" || col == "" {
			return fmt.Errorf("%w: %s: empty dimension mapping %q -> %q", ErrInvalidSchema, s.Name, dim, col)
		}
	}
	for field, col := range s.SearchFields {
		if field != normalizeField(string(field)) || col == "" {
			return fmt.Errorf("%w: %s: search field %q must be upper-case and mapped", ErrInvalidSchema, s.Name, field)
		}
	}
	return nil
}

// SoftDeletes reports whether the entity uses soft deletion.
func (s Schema) SoftDeletes() bool { return s.SoftDeleteColumn != "" }

// HasSearchField reports whether field (in any case) is searchable.
func (s Schema) HasSearchField(field string) bool {
	_, ok := s.SearchFields[normalizeField(field)]
	return ok
}
