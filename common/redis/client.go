package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/jssroberto/teraspot/common/config"

	"github.com/go-redis/redis/v8"
)

// Client alias so callers don't import go-redis directly
type Client = redis.Client

// NewRedisClient client for the current-state table and the alert streams
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Ping fails with the address in the message
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis %s: %w", client.Options().Addr, err)
	}
	return nil
}

// Close nil-safe
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
