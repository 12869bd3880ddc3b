// Package cache stores JSON-encoded values with a TTL. The Redis
// implementation backs the convention context endpoint; Noop is used when
// caching is disabled.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a typed key/value cache. Get returns nil, nil on a miss.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (*T, error)
	Set(ctx context.Context, key string, v *T) error
	Delete(ctx context.Context, keys ...string) error
	// Purge drops every entry of this cache.
	Purge(ctx context.Context) error
}

// Redis implements Cache on a go-redis client under a key prefix.
type Redis[T any] struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis[T any](rc *redis.Client, prefix string, ttl time.Duration) *Redis[T] {
	return &Redis[T]{rc: rc, prefix: prefix, ttl: ttl}
}

// Key joins the prefix and key the way every entry is stored.
func (c *Redis[T]) Key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *Redis[T]) Get(ctx context.Context, key string) (*T, error) {
	if c.rc == nil {
		return nil, nil
	}
	raw, err := c.rc.Get(ctx, c.Key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return &v, nil
}

func (c *Redis[T]) Set(ctx context.Context, key string, v *T) error {
	if c.rc == nil || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	if err := c.rc.Set(ctx, c.Key(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (c *Redis[T]) Delete(ctx context.Context, keys ...string) error {
	if c.rc == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.Key(k)
	}
	if err := c.rc.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

const purgeBatch = 100

// Purge scans the prefix and deletes matching keys in batches. An empty
// prefix would match the whole database, so it is refused.
func (c *Redis[T]) Purge(ctx context.Context) error {
	if c.rc == nil {
		return nil
	}
	if c.prefix == "" {
		return errors.New("purge requires a key prefix")
	}
	iter := c.rc.Scan(ctx, 0, c.prefix+":*", purgeBatch).Iterator()
	batch := make([]string, 0, purgeBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.rc.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to purge cache: %w", err)
		}
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == purgeBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache: %w", err)
	}
	return flush()
}

// Noop never stores anything.
type Noop[T any] struct{}

func (Noop[T]) Get(context.Context, string) (*T, error) { return nil, nil }
func (Noop[T]) Set(context.Context, string, *T) error   { return nil }
func (Noop[T]) Delete(context.Context, ...string) error { return nil }
func (Noop[T]) Purge(context.Context) error             { return nil }

// Options configures the Redis connection.
type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is empty")
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 3 * time.Second
	}
	rc := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		PoolSize:    10,
	})
	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis connect error: %w", err)
	}
	return rc, nil
}

var (
	_ Cache[struct{}] = (*Redis[struct{}])(nil)
	_ Cache[struct{}] = Noop[struct{}]{}
)

// ClientPinger adapts a go-redis client to readiness checks.
type ClientPinger struct{ Client *redis.Client }

func (p ClientPinger) Ping(ctx context.Context) error { return p.Client.Ping(ctx).Err() }
