// Package redisstore keeps login throttling state in Redis so it is shared
// across API instances.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "callpurity:login:failures:"

// NewClient creates a Redis client and checks connectivity.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Attempts implements port.AttemptTracker with INCR and EXPIRE.
type Attempts struct {
	client *redis.Client
}

// NewAttempts wraps client.
func NewAttempts(client *redis.Client) *Attempts {
	return &Attempts{client: client}
}

func (a *Attempts) Failures(ctx context.Context, key string) (int, error) {
	n, err := a.client.Get(ctx, keyPrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get failures: %w", err)
	}
	return n, nil
}

// RecordFailure increments the counter; the first failure starts the window.
func (a *Attempts) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	k := keyPrefix + key
	n, err := a.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("incr failures: %w", err)
	}
	if n == 1 {
		if err := a.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, fmt.Errorf("expire failures: %w", err)
		}
	}
	return int(n), nil
}

func (a *Attempts) Reset(ctx context.Context, key string) error {
	if err := a.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset failures: %w", err)
	}
	return nil
}
