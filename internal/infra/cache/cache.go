// Package cache provides an in-memory TTL counter used to throttle failed
// logins when Redis is not configured.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count     int
	expiresAt time.Time
}

// Counter is a thread-safe map of counters that reset after their window.
type Counter struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewCounter creates a counter and starts a sweeper that drops expired
// entries every interval.
func NewCounter(interval time.Duration) *Counter {
	c := &Counter{
		items: make(map[string]entry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go c.cleanup(interval)
	return c
}

// Failures returns the current count for key.
func (c *Counter) Failures(_ context.Context, key string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return 0, nil
	}
	return e.count, nil
}

// RecordFailure increments key. The window starts at the first failure.
func (c *Counter) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.items[key]
	if !ok || !now.Before(e.expiresAt) {
		e = entry{expiresAt: now.Add(window)}
	}
	e.count++
	c.items[key] = e
	return e.count, nil
}

// Reset clears key.
func (c *Counter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Close stops the sweeper.
func (c *Counter) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Counter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now()
			for k, v := range c.items {
				if !now.Before(v.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
