package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rendered pages are cached under view:<path>; invalidations are also
// published so long-running renderers can refresh eagerly.
const (
	viewKeyPrefix     = "view:"
	revalidateChannel = "revalidate"
)

// Redis client surface the revalidator needs; *redis.Client satisfies it.
type RedisCmdable interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Revalidator marks rendered view paths stale after successful mutations.
// Failures are logged and swallowed: a stale page is preferable to failing
// the mutation that already committed.
type Revalidator struct {
	rdb RedisCmdable
}

// New connects a client to addr.
func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
}

// NewRevalidator wraps a redis client.
func NewRevalidator(rdb RedisCmdable) *Revalidator {
	return &Revalidator{rdb: rdb}
}

// Revalidate drops the cached render for each path and announces the
// invalidation on the revalidate channel.
func (r *Revalidator) Revalidate(ctx context.Context, paths ...string) {
	if r == nil || r.rdb == nil || len(paths) == 0 {
		return
	}
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = viewKeyPrefix + p
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("view cache invalidation failed", "paths", paths, "err", err)
		return
	}
	for _, p := range paths {
		if err := r.rdb.Publish(ctx, revalidateChannel, p).Err(); err != nil {
			slog.Warn("revalidate publish failed", "path", p, "err", err)
		}
	}
}
