package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/HackRU/CTFd/internal/templates"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Per-route limits for the auth surface. Credential endpoints get a tight
// window; the token and callback endpoints a looser one.
var (
	LoginRate = limiter.Rate{Period: 5 * time.Second, Limit: 10}
	TokenRate = limiter.Rate{Period: 1 * time.Minute, Limit: 10}
)

// RateLimiterFactory builds per-route rate limit middleware over a shared
// store so all limits share one backend (and one Redis connection when
// distributed).
type RateLimiterFactory struct {
	store limiter.Store
}

// NewMemoryRateLimiterFactory creates a factory over an in-memory store
// (single instance only).
func NewMemoryRateLimiterFactory() *RateLimiterFactory {
	return &RateLimiterFactory{store: memory.NewStore()}
}

// NewRedisRateLimiterFactory creates a factory over a Redis store for
// multi-instance deployments. The client is shared with the cache layer.
func NewRedisRateLimiterFactory(client *redis.Client) (*RateLimiterFactory, error) {
	store, err := limiterRedis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:          "ratelimit",
		CleanUpInterval: 5 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis rate limit store: %w", err)
	}
	return &RateLimiterFactory{store: store}, nil
}

// Limit returns middleware enforcing the rate per client IP. Only the
// given method is counted; other methods on the route pass through.
func (f *RateLimiterFactory) Limit(method string, rate limiter.Rate) gin.HandlerFunc {
	instance := limiter.New(f.store, rate)

	limited := mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		templates.RenderTempl(c, http.StatusTooManyRequests, templates.ErrorPage(templates.ErrorPageProps{
			Error:   "Too Many Requests",
			Message: "Too many requests. Please try again later.",
		}))
		c.Abort()
	}))

	return func(c *gin.Context) {
		if c.Request.Method != method {
			c.Next()
			return
		}
		limited(c)
	}
}
