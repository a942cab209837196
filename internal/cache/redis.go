// Package cache provides the Redis client and cache-aside helpers for
// read-heavy reference data (categories, FAQs, site stats).
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the shared Redis client; nil when Redis is unavailable, in which
// case every helper degrades to a no-op and callers hit the database.
var Client *redis.Client

// InitRedis connects the shared client to the given address.
func InitRedis(addr string, log *slog.Logger) {
	Client = redis.NewClient(&redis.Options{
		Addr: addr,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis connection failed, continuing without cache", slog.String("error", err.Error()))
		Client = nil
	} else {
		log.Info("Redis connected successfully")
	}
}

// GetClient returns the shared client, which may be nil.
func GetClient() *redis.Client {
	return Client
}
