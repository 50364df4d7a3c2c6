// Package cache memoizes note counts. Every mutation bumps a generation
// counter, and a count is only ever stored under the generation that was
// current when its lookup missed, so stale counts are never served after a
// write.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notekeep/notekeep-server/internal/config"
	"github.com/notekeep/notekeep-server/internal/metrics"
	"github.com/notekeep/notekeep-server/internal/query"
)

const (
	keyPrefix     = "notes:count:"
	generationKey = keyPrefix + "gen"
)

// CountCache stores filter counts. Failures never surface to callers; a
// broken cache behaves like an empty one.
type CountCache interface {
	// Get looks up st. On a miss, key names the slot a fresh count for st
	// belongs in; an empty key means the count must not be stored.
	Get(ctx context.Context, st *query.CountStatement) (total int64, key string, ok bool)
	// Set stores total under a key returned by Get.
	Set(ctx context.Context, key string, total int64)
	// Invalidate drops every cached count.
	Invalidate(ctx context.Context)
}

// Noop caches nothing.
type Noop struct{}

func (Noop) Get(context.Context, *query.CountStatement) (int64, string, bool) { return 0, "", false }
func (Noop) Set(context.Context, string, int64)                               {}
func (Noop) Invalidate(context.Context)                                       {}

// Redis is a CountCache on go-redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis wraps client. Counts expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// New connects to cfg.URL. An empty URL or an unreachable server yields
// Noop and a nil client.
func New(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (CountCache, *redis.Client) {
	if cfg.URL == "" {
		return Noop{}, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, count cache disabled", "error", err)
		return Noop{}, nil
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, count cache disabled", "error", err)
		_ = client.Close()
		return Noop{}, nil
	}
	return NewRedis(client, cfg.CountCacheTTL, logger), client
}

// Key is the cache key for st under generation gen.
func Key(gen int64, st *query.CountStatement) (string, error) {
	args, err := json.Marshal(st.Args)
	if err != nil {
		return "", fmt.Errorf("encode count args: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(st.SQL))
	h.Write([]byte{0})
	h.Write(args)
	return keyPrefix + strconv.FormatInt(gen, 10) + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

func (r *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Redis) key(ctx context.Context, st *query.CountStatement) (string, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return "", err
	}
	return Key(gen, st)
}

func (r *Redis) Get(ctx context.Context, st *query.CountStatement) (int64, string, bool) {
	key, err := r.key(ctx, st)
	if err != nil {
		r.fail("count cache lookup failed", err)
		return 0, "", false
	}
	total, err := r.client.Get(ctx, key).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.TrackCountCache("miss")
		return 0, key, false
	case err != nil:
		r.fail("count cache lookup failed", err)
		return 0, "", false
	}
	metrics.TrackCountCache("hit")
	return total, key, true
}

// Set writes total under key. A write that raced an Invalidate lands under
// the old generation, where no later Get will look.
func (r *Redis) Set(ctx context.Context, key string, total int64) {
	if key == "" {
		return
	}
	if err := r.client.Set(ctx, key, total, r.ttl).Err(); err != nil {
		r.fail("count cache store failed", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context) {
	if err := r.client.Incr(ctx, generationKey).Err(); err != nil {
		r.fail("count cache invalidation failed", err)
	}
}

func (r *Redis) fail(msg string, err error) {
	metrics.TrackCountCache("error")
	r.logger.Warn(msg, "error", err)
}
