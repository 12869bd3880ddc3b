package slice

import "strings"

// Direction is the position-key ordering of a slice.
type Direction int

const (
	// Descending returns newest rows first; the cursor predicate is key < cursor.
	Descending Direction = iota
	// Ascending returns oldest rows first; the cursor predicate is key > cursor.
	Ascending
)

// ParseDirection accepts "asc"/"desc" in any case. Blank input yields
// Descending with ok=true; anything else is reported as not ok.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return Descending, true
	case "asc":
		return Ascending, true
	default:
		return Descending, false
	}
}

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// SQL returns the ORDER BY keyword for the direction.
func (d Direction) SQL() string {
	if d == Ascending {
		return "ASC"
	}
	return "DESC"
}

// cursorOp is the comparison that restricts a slice to rows after the cursor.
func (d Direction) cursorOp() Op {
	if d == Ascending {
		return OpGreater
	}
	return OpLess
}
