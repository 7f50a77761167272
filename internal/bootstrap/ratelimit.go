package bootstrap

import (
	"log"
	"net/http"

	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// rateLimitMiddlewares bundles the per-route rate limiters. The credential
// endpoints (login, register) use a tight window; the token-bearing
// endpoints (confirm, reset, callback) a looser one.
type rateLimitMiddlewares struct {
	login    gin.HandlerFunc
	token    gin.HandlerFunc
	callback gin.HandlerFunc
}

func passthrough(c *gin.Context) { c.Next() }

// setupRateLimiting builds the per-route limiters over a shared store,
// Redis-backed when a client is available.
func setupRateLimiting(
	cfg *config.Config,
	client *redis.Client,
) (rateLimitMiddlewares, error) {
	if !cfg.RateLimitEnabled {
		log.Println("Rate limiting disabled")
		return rateLimitMiddlewares{
			login:    passthrough,
			token:    passthrough,
			callback: passthrough,
		}, nil
	}

	var factory *middleware.RateLimiterFactory
	if client != nil {
		f, err := middleware.NewRedisRateLimiterFactory(client)
		if err != nil {
			return rateLimitMiddlewares{}, err
		}
		factory = f
		log.Println("Rate limiting enabled (redis store)")
	} else {
		factory = middleware.NewMemoryRateLimiterFactory()
		log.Println("Rate limiting enabled (memory store, single instance only)")
	}

	return rateLimitMiddlewares{
		login:    factory.Limit(http.MethodPost, middleware.LoginRate),
		token:    factory.Limit(http.MethodPost, middleware.TokenRate),
		callback: factory.Limit(http.MethodGet, middleware.TokenRate),
	}, nil
}
