package cache

import (
	"context"
	"testing"
	"time"
)

func newTestCache(t *testing.T, maxSize int) (*LocalCache, *time.Time) {
	t.Helper()
	c := NewLocalCache(maxSize, 0)
	t.Cleanup(func() { c.Close() })

	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLocalCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, 10)
	ctx := context.Background()

	if err := c.SetWithExpiry(ctx, "question:eu:2", `{"text":"Q1"}`, time.Hour); err != nil {
		t.Fatalf("SetWithExpiry() error = %v", err)
	}

	got, found, err := c.Get(ctx, "question:eu:2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() expected found=true")
	}
	if got != `{"text":"Q1"}` {
		t.Fatalf("Get() = %q", got)
	}
}

func TestLocalCacheExpiry(t *testing.T) {
	c, now := newTestCache(t, 10)
	ctx := context.Background()

	if err := c.SetWithExpiry(ctx, "answers:u1", "[]", 600*time.Second); err != nil {
		t.Fatalf("SetWithExpiry() error = %v", err)
	}

	*now = now.Add(599 * time.Second)
	if _, found, _ := c.Get(ctx, "answers:u1"); !found {
		t.Fatal("expected entry before ttl elapsed")
	}

	*now = now.Add(2 * time.Second)
	if _, found, _ := c.Get(ctx, "answers:u1"); found {
		t.Fatal("expected entry to be expired")
	}

	c.removeExpired()
	if c.Size() != 0 {
		t.Fatalf("expected expired entry to be removed, size = %d", c.Size())
	}
}

func TestLocalCacheEvictsWhenFull(t *testing.T) {
	c, now := newTestCache(t, 2)
	ctx := context.Background()

	c.SetWithExpiry(ctx, "a", "1", time.Second)
	c.SetWithExpiry(ctx, "b", "2", time.Hour)
	*now = now.Add(2 * time.Second)
	c.SetWithExpiry(ctx, "c", "3", time.Hour)

	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
	if _, found, _ := c.Get(ctx, "a"); found {
		t.Error("expected expired key a to be evicted first")
	}
	if _, found, _ := c.Get(ctx, "b"); !found {
		t.Error("expected key b to survive")
	}

	// Overwriting an existing key never evicts.
	c.SetWithExpiry(ctx, "b", "22", time.Hour)
	if c.Size() != 2 {
		t.Fatalf("expected size 2 after overwrite, got %d", c.Size())
	}
}

func TestLocalCacheHitRate(t *testing.T) {
	c, _ := newTestCache(t, 10)
	ctx := context.Background()

	c.SetWithExpiry(ctx, "k", "v", time.Minute)
	c.Get(ctx, "k")
	c.Get(ctx, "missing")

	if rate := c.HitRate(); rate != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %f", rate)
	}
}

func TestLocalCacheRespectsCancelledContext(t *testing.T) {
	c, _ := newTestCache(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := c.Get(ctx, "k"); err == nil {
		t.Error("Get() expected error for cancelled context")
	}
	if err := c.SetWithExpiry(ctx, "k", "v", time.Minute); err == nil {
		t.Error("SetWithExpiry() expected error for cancelled context")
	}
}
