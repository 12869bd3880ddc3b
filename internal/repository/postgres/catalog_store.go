package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/repository"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

// CatalogStore persists one catalog entity in Postgres. Rows are scanned by
// column name into T, so entity Columns must match T's db tags.
type CatalogStore[T any] struct {
	pool   *pgxpool.Pool
	entity catalog.Entity[T]
}

func NewCatalogStore[T any](pool *pgxpool.Pool, entity catalog.Entity[T]) *CatalogStore[T] {
	return &CatalogStore[T]{pool: pool, entity: entity}
}

func (s *CatalogStore[T]) FetchSlice(ctx context.Context, q slice.Query) ([]T, error) {
	if err := ensurePool(s.pool); err != nil {
		return nil, err
	}
	sql, args, err := buildSliceQuery(q, s.entity.Columns)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

func (s *CatalogStore[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if err := ensurePool(s.pool); err != nil {
		return zero, err
	}
	b := newSQLBuilder()
	placeholders := make([]string, 0, len(s.entity.InsertColumns))
	for _, arg := range s.entity.InsertArgs(v) {
		placeholders = append(placeholders, b.placeholder(b.addArg(arg)))
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		ident(s.entity.Schema.Table),
		selectList(s.entity.InsertColumns),
		strings.Join(placeholders, ", "),
		selectList(s.entity.Columns),
	)
	return s.one(ctx, sql, b.args, repository.ErrNotFound)
}

func (s *CatalogStore[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := ensurePool(s.pool); err != nil {
		return zero, err
	}
	schema := s.entity.Schema
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		selectList(s.entity.Columns), ident(schema.Table), ident(schema.PositionColumn))
	if schema.SoftDeletes() {
		sql += " AND " + ident(schema.SoftDeleteColumn) + " IS NULL"
	}
	return s.one(ctx, sql, []any{id}, repository.ErrNotFound)
}

func (s *CatalogStore[T]) Update(ctx context.Context, id int64, v T) (T, error) {
	var zero T
	if err := ensurePool(s.pool); err != nil {
		return zero, err
	}
	sql, args := buildUpdate(s.entity, id, v)
	return s.one(ctx, sql, args, repository.ErrNotFound)
}

// SwapStatus reports ErrNotFound for a missing row and ErrConflict when the
// row exists but has already left from.
func (s *CatalogStore[T]) SwapStatus(ctx context.Context, id int64, from, to string) (T, error) {
	var zero T
	if err := ensurePool(s.pool); err != nil {
		return zero, err
	}
	if !s.entity.HasColumn(catalog.StatusColumn) {
		return zero, fmt.Errorf("%w: %s has no status", slice.ErrContractViolation, s.entity.Name())
	}
	sql, args := buildStatusSwap(s.entity, id, from, to)
	out, err := s.one(ctx, sql, args, repository.ErrConflict)
	if errors.Is(err, repository.ErrConflict) {
		if _, getErr := s.GetByID(ctx, id); errors.Is(getErr, repository.ErrNotFound) {
			return zero, repository.ErrNotFound
		}
	}
	return out, err
}

// one runs a single-row RETURNING statement; noRows is reported when nothing
// matched.
func (s *CatalogStore[T]) one(ctx context.Context, sql string, args []any, noRows error) (T, error) {
	var zero T
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return zero, repository.MapPgError(err)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, noRows
		}
		return zero, repository.MapPgError(err)
	}
	return out, nil
}

func (s *CatalogStore[T]) Delete(ctx context.Context, id int64) error {
	if err := ensurePool(s.pool); err != nil {
		return err
	}
	schema := s.entity.Schema
	var sql string
	if schema.SoftDeletes() {
		sql = fmt.Sprintf("UPDATE %s SET %s = now(), updated_at = now() WHERE %s = $1 AND %s IS NULL",
			ident(schema.Table), ident(schema.SoftDeleteColumn), ident(schema.PositionColumn), ident(schema.SoftDeleteColumn))
	} else {
		sql = fmt.Sprintf("DELETE FROM %s WHERE %s = $1", ident(schema.Table), ident(schema.PositionColumn))
	}
	tag, err := s.pool.Exec(ctx, sql, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ensurePool asserts we didn't accidentally nil the pool.
func ensurePool(pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("pgx pool is nil")
	}
	return nil
}

var (
	_ repository.CatalogRepository[model.CodingRule] = (*CatalogStore[model.CodingRule])(nil)
	_ repository.StatusRepository[model.Feedback]    = (*CatalogStore[model.Feedback])(nil)
)
