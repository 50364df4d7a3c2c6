package providers

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"

	"github.com/notekeep/notekeep-server/internal/cache"
	"github.com/notekeep/notekeep-server/internal/config"
	"github.com/notekeep/notekeep-server/internal/logger"
)

// CountCacheHandle wraps the count cache with its Redis client, if any.
type CountCacheHandle struct {
	cache.CountCache
	client *redis.Client
}

// Shutdown implements do.Shutdownable.
func (h *CountCacheHandle) Shutdown() error {
	if h.client == nil {
		return nil
	}
	return h.client.Close()
}

// ProvideCountCache provides the Redis-backed count cache, or a no-op cache
// when Redis is not configured or unreachable.
func ProvideCountCache(i do.Injector) (*CountCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), cacheConnectTimeout)
	defer cancel()

	counts, client := cache.New(ctx, cfg.Redis, log.Logger)
	if client != nil {
		log.Info("Count cache enabled", "addr", client.Options().Addr, "ttl", cfg.Redis.CountCacheTTL)
	} else {
		log.Info("Count cache disabled")
	}

	return &CountCacheHandle{CountCache: counts, client: client}, nil
}
