package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*Lists, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

type item struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestGetMissThenHit(t *testing.T) {
	lists, _ := testCache(t)
	ctx := context.Background()

	var out []item
	assert.False(t, lists.Get(ctx, "alice", "providers", &out))

	lists.Set(ctx, "alice", "providers", []item{{ID: 1, Name: "work"}})

	require.True(t, lists.Get(ctx, "alice", "providers", &out))
	require.Len(t, out, 1)
	assert.Equal(t, "work", out[0].Name)
}

func TestEntriesAreScopedPerUserAndEntity(t *testing.T) {
	lists, _ := testCache(t)
	ctx := context.Background()

	lists.Set(ctx, "alice", "providers", []item{{ID: 1}})

	var out []item
	assert.False(t, lists.Get(ctx, "bob", "providers", &out))
	assert.False(t, lists.Get(ctx, "alice", "sources", &out))
}

func TestInvalidateRemovesOnlyNamedEntities(t *testing.T) {
	lists, _ := testCache(t)
	ctx := context.Background()

	lists.Set(ctx, "alice", "providers", []item{{ID: 1}})
	lists.Set(ctx, "alice", "sources", []item{{ID: 2}})

	lists.Invalidate(ctx, "alice", "providers")

	var out []item
	assert.False(t, lists.Get(ctx, "alice", "providers", &out))
	assert.True(t, lists.Get(ctx, "alice", "sources", &out))
}

func TestCorruptEntryIsDropped(t *testing.T) {
	lists, mr := testCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("lists:alice:providers", "{not json"))

	var out []item
	assert.False(t, lists.Get(ctx, "alice", "providers", &out))
	// The bad entry was deleted, not left to fail forever.
	assert.False(t, mr.Exists("lists:alice:providers"))
}

func TestNilCacheDegradesToMisses(t *testing.T) {
	var lists *Lists
	ctx := context.Background()

	var out []item
	assert.False(t, lists.Get(ctx, "alice", "providers", &out))
	lists.Set(ctx, "alice", "providers", []item{{ID: 1}})
	lists.Invalidate(ctx, "alice", "providers")
}

func TestNewWithEmptyAddrIsNil(t *testing.T) {
	assert.Nil(t, New(""))
}
