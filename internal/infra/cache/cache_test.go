package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/callpurity/callpurity-api/internal/infra/cache"
)

func TestCounter_RecordAndRead(t *testing.T) {
	c := cache.NewCounter(time.Minute)
	defer c.Close()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := c.RecordFailure(ctx, "ann@example.com", time.Minute)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != i {
			t.Errorf("expected %d, got %d", i, n)
		}
	}

	n, _ := c.Failures(ctx, "ann@example.com")
	if n != 3 {
		t.Errorf("expected 3 failures, got %d", n)
	}
}

func TestCounter_Miss(t *testing.T) {
	c := cache.NewCounter(time.Minute)
	defer c.Close()

	n, err := c.Failures(context.Background(), "nobody")
	if err != nil || n != 0 {
		t.Fatalf("expected 0 and no error, got %d %v", n, err)
	}
}

func TestCounter_WindowExpires(t *testing.T) {
	c := cache.NewCounter(time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.RecordFailure(ctx, "k", 50*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	n, _ := c.Failures(ctx, "k")
	if n != 0 {
		t.Fatalf("expected window to be expired, got %d", n)
	}

	n, _ = c.RecordFailure(ctx, "k", time.Minute)
	if n != 1 {
		t.Errorf("expected a fresh window, got %d", n)
	}
}

func TestCounter_Reset(t *testing.T) {
	c := cache.NewCounter(time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.RecordFailure(ctx, "k", time.Minute)
	c.Reset(ctx, "k")

	n, _ := c.Failures(ctx, "k")
	if n != 0 {
		t.Fatal("expected key to be reset")
	}
}
