package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

type sqlBuilder struct {
	args []any
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{args: make([]any, 0)}
}

func (b *sqlBuilder) addArg(value any) int {
	b.args = append(b.args, value)
	return len(b.args)
}

func (b *sqlBuilder) placeholder(idx int) string {
	return fmt.Sprintf("$%d", idx)
}

func ident(name string) string { return pgx.Identifier{name}.Sanitize() }

func selectList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ident(c)
	}
	return strings.Join(quoted, ", ")
}

// likeEscaper makes a search word match literally inside ILIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// renderPredicate appends the SQL for one predicate. Every predicate renders
// to a real condition; absent filters never reach this point.
func renderPredicate(p slice.Predicate, b *sqlBuilder) (string, error) {
	col := ident(p.Column)
	switch p.Op {
	case slice.OpIsNull:
		return col + " IS NULL", nil
	case slice.OpLess:
		return col + " < " + b.placeholder(b.addArg(p.Value)), nil
	case slice.OpGreater:
		return col + " > " + b.placeholder(b.addArg(p.Value)), nil
	case slice.OpIn:
		if len(p.Members) == 0 {
			return "", fmt.Errorf("%w: empty set for %s", slice.ErrContractViolation, p.Dimension)
		}
		return col + " = ANY(" + b.placeholder(b.addArg(p.Value)) + ")", nil
	case slice.OpContainsFold:
		word, ok := p.Value.(string)
		if !ok {
			return "", fmt.Errorf("%w: search value for %s is %T", slice.ErrContractViolation, p.Column, p.Value)
		}
		ph := b.placeholder(b.addArg(likeEscaper.Replace(word)))
		return col + ` ILIKE '%' || ` + ph + ` || '%' ESCAPE '\'`, nil
	default:
		return "", fmt.Errorf("%w: unsupported predicate %s", slice.ErrContractViolation, p.Op)
	}
}

// buildSliceQuery renders q as one SELECT ordered by the position key. It
// never emits COUNT and never emits a WHERE clause without predicates.
func buildSliceQuery(q slice.Query, columns []string) (string, []any, error) {
	if q.Limit <= 0 {
		return "", nil, errors.New("slice query limit must be positive")
	}
	b := newSQLBuilder()
	where := make([]string, 0, len(q.Predicates))
	for _, p := range q.Predicates {
		clause, err := renderPredicate(p, b)
		if err != nil {
			return "", nil, err
		}
		where = append(where, clause)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectList(columns))
	sb.WriteString(" FROM ")
	sb.WriteString(ident(q.Schema.Table))
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s LIMIT %s",
		ident(q.Schema.PositionColumn), q.Direction.SQL(), b.placeholder(b.addArg(q.Limit)))
	return sb.String(), b.args, nil
}

// buildUpdate renders a full replacement of the writable columns of one live
// row. updated_at is stamped by the database.
func buildUpdate[T any](entity catalog.Entity[T], id int64, v T) (string, []any) {
	b := newSQLBuilder()
	values := entity.InsertArgs(v)
	sets := make([]string, 0, len(entity.InsertColumns)+1)
	for i, col := range entity.InsertColumns {
		if entity.IsImmutable(col) {
			continue
		}
		sets = append(sets, ident(col)+" = "+b.placeholder(b.addArg(values[i])))
	}
	sets = append(sets, ident("updated_at")+" = now()")

	schema := entity.Schema
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		ident(schema.Table), strings.Join(sets, ", "), ident(schema.PositionColumn), b.placeholder(b.addArg(id)))
	if schema.SoftDeletes() {
		sql += " AND " + ident(schema.SoftDeleteColumn) + " IS NULL"
	}
	return sql + " RETURNING " + selectList(entity.Columns), b.args
}

// buildStatusSwap moves a row from one status to another only if it still
// holds the expected one.
func buildStatusSwap[T any](entity catalog.Entity[T], id int64, from, to string) (string, []any) {
	schema := entity.Schema
	sql := fmt.Sprintf("UPDATE %s SET %s = $1, %s = now() WHERE %s = $2 AND %s = $3 RETURNING %s",
		ident(schema.Table), ident(catalog.StatusColumn), ident("updated_at"),
		ident(schema.PositionColumn), ident(catalog.StatusColumn), selectList(entity.Columns))
	return sql, []any{to, id, from}
}
