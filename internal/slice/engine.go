package slice

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Observer receives one call per executed slice query.
type Observer interface {
	ObserveSlice(entity string, returned int, hasNext bool, took time.Duration, err error)
}

type engineConfig struct {
	log      zerolog.Logger
	observer Observer
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithLogger sets the logger used for slice debug output.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(c *engineConfig) { c.log = l }
}

// WithObserver registers an observer, typically a metrics recorder.
func WithObserver(o Observer) EngineOption {
	return func(c *engineConfig) { c.observer = o }
}

// Engine executes slice queries for one row type against one store.
type Engine[T any] struct {
	store Store[T]
	key   func(T) Key
	cfg   engineConfig
}

// NewEngine wires a store with the accessor that yields a row's position key.
func NewEngine[T any](store Store[T], key func(T) Key, opts ...EngineOption) *Engine[T] {
	cfg := engineConfig{log: zerolog.Nop()}
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine[T]{store: store, key: key, cfg: cfg}
}

// Search fetches size+1 rows for c and assembles the slice.
func (e *Engine[T]) Search(ctx context.Context, c Criteria) (Result[T], error) {
	start := time.Now()
	rows, err := Fetch(ctx, e.store, c)
	took := time.Since(start)
	if err != nil {
		e.observe(c, 0, false, took, err)
		return Result[T]{}, err
	}
	res := Assemble(rows, c.Size(), e.key)
	e.observe(c, len(res.Content), res.HasNext, took, nil)

	cur, hasCursor := c.Page().Cursor()
	e.cfg.log.Debug().
		Str("entity", c.Schema().Name).
		Bool("first_page", !hasCursor).
		Int64("cursor", cur).
		Str("direction", c.Page().Direction().String()).
		Strs("dimensions", c.Dimensions()).
		Bool("search", c.Search().Present()).
		Int("size", c.Size()).
		Int("fetched", len(rows)).
		Bool("has_next", res.HasNext).
		Dur("took", took).
		Msg("slice fetched")
	return res, nil
}

// Walk visits every slice from c onwards until the last one, calling fn with
// each slice's content. It stops at the first error from the store or fn.
func (e *Engine[T]) Walk(ctx context.Context, c Criteria, fn func([]T) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := e.Search(ctx, c)
		if err != nil {
			return err
		}
		if len(res.Content) > 0 {
			if err := fn(res.Content); err != nil {
				return err
			}
		}
		if !res.HasNext {
			return nil
		}
		c = c.Next(e.key(res.Content[len(res.Content)-1]))
	}
}

// All collects every row reachable from c.
func (e *Engine[T]) All(ctx context.Context, c Criteria) ([]T, error) {
	var out []T
	err := e.Walk(ctx, c, func(rows []T) error {
		out = append(out, rows...)
		return nil
	})
	return out, err
}

func (e *Engine[T]) observe(c Criteria, n int, hasNext bool, took time.Duration, err error) {
	if e.cfg.observer == nil {
		return
	}
	e.cfg.observer.ObserveSlice(c.Schema().Name, n, hasNext, took, err)
}
