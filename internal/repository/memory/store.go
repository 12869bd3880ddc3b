// Package memory is an in-process catalog store. It evaluates the same slice
// predicates the Postgres store renders to SQL and backs the memory storage
// driver as well as tests.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/repository"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

// Store keeps rows of T keyed by id. Columns are resolved through T's db tags.
type Store[T any] struct {
	mu     sync.RWMutex
	entity catalog.Entity[T]
	rows   map[int64]T
	nextID int64
	fields map[string]int
	now    func() time.Time
}

// New builds an empty store for entity. It panics when T is not a struct or
// a column named by the entity has no matching db tag.
func New[T any](entity catalog.Entity[T]) *Store[T] {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil || rt.Kind() != reflect.Struct {
		panic(fmt.Sprintf("memory: %s rows must be structs", entity.Name()))
	}
	fields := make(map[string]int, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		if tag := rt.Field(i).Tag.Get("db"); tag != "" && tag != "-" {
			fields[tag] = i
		}
	}
	for _, col := range entity.Columns {
		if _, ok := fields[col]; !ok {
			panic(fmt.Sprintf("memory: %s has no field tagged db:%q", entity.Name(), col))
		}
	}
	return &Store[T]{
		entity: entity,
		rows:   make(map[int64]T),
		fields: fields,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source.
func (s *Store[T]) WithClock(now func() time.Time) *Store[T] {
	s.now = now
	return s
}

func (s *Store[T]) FetchSlice(ctx context.Context, q slice.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("slice query limit must be positive, got %d", q.Limit)
	}
	for _, p := range q.Predicates {
		if _, ok := s.fields[p.Column]; !ok {
			return nil, fmt.Errorf("%w: %s has no column %q", slice.ErrContractViolation, s.entity.Name(), p.Column)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	if q.Direction == slice.Ascending {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	} else {
		sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	}

	out := make([]T, 0, q.Limit)
	for _, id := range ids {
		row := s.rows[id]
		ok, err := s.matches(row, q.Predicates)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, row)
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(v, 0); err != nil {
		return zero, err
	}

	s.nextID++
	now := s.now()
	rv := reflect.ValueOf(&v).Elem()
	s.set(rv, "id", reflect.ValueOf(s.nextID))
	s.set(rv, "created_at", reflect.ValueOf(now))
	s.set(rv, "updated_at", reflect.ValueOf(now))
	if s.entity.Schema.SoftDeletes() {
		s.set(rv, s.entity.Schema.SoftDeleteColumn, reflect.Zero(rv.Field(s.fields[s.entity.Schema.SoftDeleteColumn]).Type()))
	}
	s.rows[s.nextID] = v
	return v, nil
}

func (s *Store[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok || !s.live(row) {
		return zero, repository.ErrNotFound
	}
	return row, nil
}

func (s *Store[T]) Update(ctx context.Context, id int64, v T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.rows[id]
	if !ok || !s.live(old) {
		return zero, repository.ErrNotFound
	}

	next := old
	rv := reflect.ValueOf(&next).Elem()
	src := reflect.ValueOf(v)
	for _, col := range s.entity.InsertColumns {
		if s.entity.IsImmutable(col) {
			continue
		}
		idx := s.fields[col]
		rv.Field(idx).Set(src.Field(idx))
	}
	if err := s.checkUnique(next, id); err != nil {
		return zero, err
	}
	s.set(rv, "updated_at", reflect.ValueOf(s.now()))
	s.rows[id] = next
	return next, nil
}

// SwapStatus moves a live row from one status to another. It returns
// ErrConflict when the row no longer holds from.
func (s *Store[T]) SwapStatus(ctx context.Context, id int64, from, to string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	idx, ok := s.fields[catalog.StatusColumn]
	if !ok {
		return zero, fmt.Errorf("%w: %s has no status", slice.ErrContractViolation, s.entity.Name())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || !s.live(row) {
		return zero, repository.ErrNotFound
	}
	rv := reflect.ValueOf(&row).Elem()
	f := rv.Field(idx)
	if f.Kind() != reflect.String {
		return zero, fmt.Errorf("%w: %s status is not text", slice.ErrContractViolation, s.entity.Name())
	}
	if f.String() != from {
		return zero, repository.ErrConflict
	}
	f.SetString(to)
	s.set(rv, "updated_at", reflect.ValueOf(s.now()))
	s.rows[id] = row
	return row, nil
}

func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || !s.live(row) {
		return repository.ErrNotFound
	}
	if !s.entity.Schema.SoftDeletes() {
		delete(s.rows, id)
		return nil
	}
	now := s.now()
	rv := reflect.ValueOf(&row).Elem()
	s.set(rv, s.entity.Schema.SoftDeleteColumn, reflect.ValueOf(&now))
	s.set(rv, "updated_at", reflect.ValueOf(now))
	s.rows[id] = row
	return nil
}

// Ping always succeeds; it lets the memory driver satisfy readiness checks.
func (s *Store[T]) Ping(context.Context) error { return nil }

// Len counts stored rows, soft-deleted ones included.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *Store[T]) live(row T) bool {
	col := s.entity.Schema.SoftDeleteColumn
	if col == "" {
		return true
	}
	return s.column(row, col).IsNil()
}

func (s *Store[T]) column(row T, name string) reflect.Value {
	return reflect.ValueOf(row).Field(s.fields[name])
}

func (s *Store[T]) set(rv reflect.Value, name string, val reflect.Value) {
	idx, ok := s.fields[name]
	if !ok {
		return
	}
	f := rv.Field(idx)
	if val.Type().ConvertibleTo(f.Type()) {
		f.Set(val.Convert(f.Type()))
	}
}

// checkUnique rejects v when a live row other than skip repeats one of the
// entity's unique groups.
func (s *Store[T]) checkUnique(v T, skip int64) error {
	for _, group := range s.entity.Unique {
		for id, existing := range s.rows {
			if id == skip || !s.live(existing) {
				continue
			}
			if s.sameValues(existing, v, group) {
				return &repository.ConstraintError{
					Kind:       repository.ErrAlreadyExists,
					Table:      s.entity.Schema.Table,
					Constraint: "unique(" + strings.Join(group, ",") + ")",
					Columns:    group,
				}
			}
		}
	}
	return nil
}

func (s *Store[T]) sameValues(a, b T, cols []string) bool {
	for _, c := range cols {
		if !reflect.DeepEqual(s.column(a, c).Interface(), s.column(b, c).Interface()) {
			return false
		}
	}
	return true
}

func (s *Store[T]) matches(row T, preds []slice.Predicate) (bool, error) {
	for _, p := range preds {
		v := s.column(row, p.Column)
		switch p.Op {
		case slice.OpIsNull:
			if v.Kind() != reflect.Pointer || !v.IsNil() {
				return false, nil
			}
		case slice.OpLess, slice.OpGreater:
			k, ok := p.Value.(slice.Key)
			if !ok || !v.CanInt() {
				return false, fmt.Errorf("%w: %s is not an integer position", slice.ErrContractViolation, p.Column)
			}
			if p.Op == slice.OpLess && !(v.Int() < k) {
				return false, nil
			}
			if p.Op == slice.OpGreater && !(v.Int() > k) {
				return false, nil
			}
		case slice.OpIn:
			if !memberOf(v.Interface(), p.Members) {
				return false, nil
			}
		case slice.OpContainsFold:
			word, _ := p.Value.(string)
			str, ok := v.Interface().(string)
			if !ok {
				return false, fmt.Errorf("%w: %s is not a text column", slice.ErrContractViolation, p.Column)
			}
			if !strings.Contains(strings.ToLower(str), strings.ToLower(word)) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("%w: unsupported predicate %s", slice.ErrContractViolation, p.Op)
		}
	}
	return true, nil
}

// memberOf compares by value; integer members match integer columns of any
// width so an int filter matches an int64 column.
func memberOf(v any, members []any) bool {
	rv := reflect.ValueOf(v)
	for _, m := range members {
		if m == v {
			return true
		}
		mv := reflect.ValueOf(m)
		if mv.IsValid() && mv.CanInt() && rv.CanInt() && mv.Int() == rv.Int() {
			return true
		}
	}
	return false
}

var (
	_ repository.CatalogRepository[model.Layer]   = (*Store[model.Layer])(nil)
	_ repository.StatusRepository[model.Feedback] = (*Store[model.Feedback])(nil)
)
