package slice

import "context"

// Query is what a store receives: AND all predicates, order by the schema's
// position column in Direction, return at most Limit rows.
type Query struct {
	Schema     Schema
	Predicates []Predicate
	Direction  Direction
	Limit      int
}

// Store is the storage collaborator behind slice queries. Implementations
// must return rows in strict position order, never more than q.Limit of them,
// and must not issue COUNT queries.
type Store[T any] interface {
	FetchSlice(ctx context.Context, q Query) ([]T, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc[T any] func(ctx context.Context, q Query) ([]T, error)

func (f StoreFunc[T]) FetchSlice(ctx context.Context, q Query) ([]T, error) { return f(ctx, q) }

// BuildQuery composes the store query for c, limited to the over-fetch size.
func BuildQuery(c Criteria) Query {
	return Query{
		Schema:     c.schema,
		Predicates: Compose(c),
		Direction:  c.page.Direction(),
		Limit:      c.FetchSize(),
	}
}

// Fetch runs the over-fetching query for c. Store errors are returned as is.
func Fetch[T any](ctx context.Context, store Store[T], c Criteria) ([]T, error) {
	return store.FetchSlice(ctx, BuildQuery(c))
}
