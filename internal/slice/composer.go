package slice

// Compose translates criteria into the predicates a store must AND together.
// Each dimension contributes a fragment only when present; nothing is ever
// rendered as an always-true or always-false placeholder.
func Compose(c Criteria) []Predicate {
	out := make([]Predicate, 0, len(c.sets)+3)
	if p, ok := softDeleteFragment(c); ok {
		out = append(out, p)
	}
	out = append(out, setFragments(c)...)
	if p, ok := searchFragment(c); ok {
		out = append(out, p)
	}
	if p, ok := cursorFragment(c); ok {
		out = append(out, p)
	}
	return out
}

func softDeleteFragment(c Criteria) (Predicate, bool) {
	if !c.schema.SoftDeletes() || c.includeDeleted {
		return Predicate{}, false
	}
	return Predicate{Dimension: DimensionSoftDelete, Column: c.schema.SoftDeleteColumn, Op: OpIsNull}, true
}

func setFragments(c Criteria) []Predicate {
	out := make([]Predicate, 0, len(c.sets))
	for _, s := range c.sets {
		members := make([]any, len(s.members))
		copy(members, s.members)
		out = append(out, Predicate{Dimension: s.dimension, Column: s.column, Op: OpIn, Value: s.typed, Members: members})
	}
	return out
}

func searchFragment(c Criteria) (Predicate, bool) {
	if !c.search.Present() {
		return Predicate{}, false
	}
	return Predicate{
		Dimension: DimensionSearch,
		Column:    c.schema.SearchFields[c.search.field],
		Op:        OpContainsFold,
		Value:     c.search.word,
	}, true
}

func cursorFragment(c Criteria) (Predicate, bool) {
	k, ok := c.page.Cursor()
	if !ok {
		return Predicate{}, false
	}
	return Predicate{
		Dimension: DimensionCursor,
		Column:    c.schema.PositionColumn,
		Op:        c.page.Direction().cursorOp(),
		Value:     k,
	}, true
}
