package slice

// Op is a predicate comparison.
type Op int

const (
	OpLess Op = iota + 1
	OpGreater
	OpIn
	OpContainsFold
	OpIsNull
)

func (o Op) String() string {
	switch o {
	case OpLess:
		return "lt"
	case OpGreater:
		return "gt"
	case OpIn:
		return "in"
	case OpContainsFold:
		return "contains_fold"
	case OpIsNull:
		return "is_null"
	default:
		return "unknown"
	}
}

// Reserved dimension names for fragments that do not come from set filters.
const (
	DimensionCursor     = "cursor"
	DimensionSearch     = "search"
	DimensionSoftDelete = "soft_delete"
)

// Predicate is one independent condition on one column. A store ANDs all
// predicates of a query together.
type Predicate struct {
	Dimension string
	Column    string
	Op        Op
	// Value is the scalar operand (Key, search word) or, for OpIn, the typed
	// value slice as supplied by the caller. Nil for OpIsNull.
	Value any
	// Members holds OpIn values boxed one by one.
	Members []any
}
