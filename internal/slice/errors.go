package slice

import (
	"errors"
	"fmt"
)

// ErrContractViolation marks programmer errors: a criteria built against a
// schema with names the schema does not declare. These are never user input
// problems; handlers validate user-facing names before building criteria.
var ErrContractViolation = errors.New("slice contract violation")

var (
	ErrUnknownSearchField = fmt.Errorf("%w: unknown search field", ErrContractViolation)
	ErrUnknownDimension   = fmt.Errorf("%w: unknown filter dimension", ErrContractViolation)
	ErrInvalidSchema      = fmt.Errorf("%w: invalid schema", ErrContractViolation)
)
