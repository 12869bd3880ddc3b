package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain-level errors I prefer to bubble up from repository implementations.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
)

// ConstraintError names the catalog constraint a write broke. It unwraps to
// ErrAlreadyExists for natural-key duplicates and to ErrConflict otherwise.
type ConstraintError struct {
	Kind       error
	Table      string
	Constraint string
	Columns    []string
}

func (e *ConstraintError) Error() string { return e.Kind.Error() + ": " + e.Message() }
func (e *ConstraintError) Unwrap() error { return e.Kind }

// Message is the client-facing explanation.
func (e *ConstraintError) Message() string {
	cols := strings.Join(e.Columns, ", ")
	switch {
	case errors.Is(e.Kind, ErrAlreadyExists) && cols != "":
		return fmt.Sprintf("%s with the same %s already exists", e.Table, cols)
	case errors.Is(e.Kind, ErrConflict) && cols != "":
		return fmt.Sprintf("%s.%s does not reference an existing row", e.Table, cols)
	default:
		return fmt.Sprintf("%s violates %s", e.Table, e.Constraint)
	}
}

// uniqueKeys maps the partial unique indexes of the catalog migrations to
// the natural key they guard.
var uniqueKeys = map[string][]string{
	"ux_tech_stacks_name":         {"name"},
	"ux_architectures_stack_name": {"tech_stack_id", "name"},
	"ux_layers_architecture_code": {"architecture_id", "code"},
	"ux_modules_layer_name":       {"layer_id", "name"},
	"ux_coding_rules_code":        {"code"},
	"ux_templates_layer_name":     {"layer_id", "name"},
}

// MapPgError translates Postgres constraint failures into *ConstraintError.
// Foreign keys use the default <table>_<column>_fkey names, so the missing
// parent column is recovered from the constraint name.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	ce := &ConstraintError{Table: pgErr.TableName, Constraint: pgErr.ConstraintName}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		ce.Kind = ErrAlreadyExists
		ce.Columns = uniqueKeys[pgErr.ConstraintName]
	case pgerrcode.ForeignKeyViolation:
		ce.Kind = ErrConflict
		if col, ok := fkColumn(pgErr.TableName, pgErr.ConstraintName); ok {
			ce.Columns = []string{col}
		}
	case pgerrcode.CheckViolation:
		ce.Kind = ErrConflict
	default:
		return err
	}
	return ce
}

func fkColumn(table, constraint string) (string, bool) {
	col, ok := strings.CutPrefix(constraint, table+"_")
	if !ok {
		return "", false
	}
	col, ok = strings.CutSuffix(col, "_fkey")
	return col, ok && col != ""
}
