// Package cache is an optional redis read-through cache for the per-user
// entity lists (providers, sources, threads). The store stays the source of
// truth: entries are invalidated on every membership mutation, matching the
// refetch-after-mutation policy of the clients.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

type Lists struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a list cache backed by redis, or nil when addr is empty. A nil
// *Lists is valid: all methods degrade to cache misses.
func New(addr string) *Lists {
	if addr == "" {
		return nil
	}
	return &Lists{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: defaultTTL,
	}
}

// NewWithClient wires an existing client; tests use this with miniredis.
func NewWithClient(rdb *redis.Client) *Lists {
	return &Lists{rdb: rdb, ttl: defaultTTL}
}

// Get unmarshals a cached list into dest and reports whether it was present.
func (l *Lists) Get(ctx context.Context, userID, entity string, dest any) bool {
	if l == nil {
		return false
	}
	raw, err := l.rdb.Get(ctx, listKey(userID, entity)).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("Dropping corrupt cache entry", "user", userID, "entity", entity, "error", err)
		l.rdb.Del(ctx, listKey(userID, entity))
		return false
	}
	return true
}

func (l *Lists) Set(ctx context.Context, userID, entity string, v any) {
	if l == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := l.rdb.Set(ctx, listKey(userID, entity), raw, l.ttl).Err(); err != nil {
		slog.Warn("Cache set failed", "entity", entity, "error", err)
	}
}

// Invalidate removes cached lists after a membership mutation.
func (l *Lists) Invalidate(ctx context.Context, userID string, entities ...string) {
	if l == nil {
		return
	}
	keys := make([]string, len(entities))
	for i, entity := range entities {
		keys[i] = listKey(userID, entity)
	}
	if err := l.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Cache invalidation failed", "error", err)
	}
}

func listKey(userID, entity string) string {
	return fmt.Sprintf("lists:%s:%s", userID, entity)
}
