package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HackRU/CTFd/internal/config"

	"github.com/redis/go-redis/v9"
)

// initializeRedisClient creates the shared go-redis client used by the
// session caches and the rate limit store. Returns nil when no Redis
// address is configured; the memory backends are used instead.
func initializeRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil //nolint:nilnil // redis not needed in this configuration
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Printf("Redis client initialized (address: %s, db: %d)", cfg.RedisAddr, cfg.RedisDB)
	return client, nil
}
