package bootstrap

import (
	"log"

	"github.com/HackRU/CTFd/internal/cache"
	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/metrics"
	"github.com/HackRU/CTFd/internal/models"

	"github.com/redis/go-redis/v9"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// cacheSet bundles the server-side caches used by the session and settings
// layers.
type cacheSet struct {
	Users  cache.Cache[models.User]
	Teams  cache.Cache[models.Team]
	Config cache.Cache[string]
}

// initializeCaches selects the cache backend. With a Redis client the
// caches are shared across instances; without one they fall back to
// per-process memory caches.
func initializeCaches(cfg *config.Config, client *redis.Client) *cacheSet {
	if client == nil {
		log.Println("Session caches: memory (single instance only)")
		return &cacheSet{
			Users:  cache.NewMemoryCache[models.User](),
			Teams:  cache.NewMemoryCache[models.Team](),
			Config: cache.NewMemoryCache[string](),
		}
	}

	log.Printf("Session caches: redis (address: %s, db: %d)", cfg.RedisAddr, cfg.RedisDB)
	return &cacheSet{
		Users:  cache.NewRedisCache[models.User](client, "ctfd:users:"),
		Teams:  cache.NewRedisCache[models.Team](client, "ctfd:teams:"),
		Config: cache.NewRedisCache[string](client, "ctfd:config:"),
	}
}

func (c *cacheSet) Close() {
	_ = c.Users.Close()
	_ = c.Teams.Close()
	_ = c.Config.Close()
}
