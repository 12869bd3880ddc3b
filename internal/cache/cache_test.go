package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name string `json:"name"`
}

func TestRedis_Key(t *testing.T) {
	assert.Equal(t, "ctx:7:DOMAIN", NewRedis[entry](nil, "ctx", time.Minute).Key("7:DOMAIN"))
	assert.Equal(t, "plain", NewRedis[entry](nil, "", time.Minute).Key("plain"))
}

func TestRedis_NilClientIsMiss(t *testing.T) {
	c := NewRedis[entry](nil, "ctx", time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", &entry{Name: "x"}))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Purge(ctx))
}

func TestRedis_PurgeRefusesEmptyPrefix(t *testing.T) {
	rc := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rc.Close()
	err := NewRedis[entry](rc, "", time.Minute).Purge(context.Background())
	assert.ErrorContains(t, err, "prefix")
}

func TestNoop(t *testing.T) {
	var c Cache[entry] = Noop[entry]{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", &entry{Name: "x"}))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Purge(ctx))
}

func TestConnect_RequiresAddress(t *testing.T) {
	_, err := Connect(context.Background(), Options{})
	assert.Error(t, err)
}
