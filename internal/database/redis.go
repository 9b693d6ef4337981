package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClients struct {
	// Cache, tokens, rate limits, presence and the execution queue.
	Main *redis.Client
	// Dedicated connection for pub/sub subscriptions.
	PubSub *redis.Client
}

// NewRedisClients parses the URL and pings both clients. An unreachable
// Redis is logged, not fatal: every Redis use in the app is best-effort and
// go-redis redials on demand.
func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mainClient := redis.NewClient(opt)
	if err := mainClient.Ping(ctx).Err(); err != nil {
		log.Printf("⚠ Redis ping failed (main), continuing without cache: %v", err)
	}

	// PubSub client (separate connection)
	pubsubOpt := *opt
	pubsubClient := redis.NewClient(&pubsubOpt)

	return &RedisClients{
		Main:   mainClient,
		PubSub: pubsubClient,
	}, nil
}

func (r *RedisClients) Close() {
	r.Main.Close()
	r.PubSub.Close()
}
