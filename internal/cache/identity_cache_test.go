package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/schoolsuite/school-service/internal/models"
)

func newTestCache(t *testing.T) *IdentityCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewIdentityCache(client)
}

func TestIdentityCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	user := &models.User{ID: "u1", Email: "ana@example.com", Username: "ana"}
	if err := c.Set(ctx, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := c.Get(ctx, "u1")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.Email != user.Email || got.Username != user.Username {
		t.Errorf("cached record mismatch: %+v", got)
	}
}

func TestIdentityCacheMiss(t *testing.T) {
	c := newTestCache(t)

	if _, ok := c.Get(context.Background(), "missing"); ok {
		t.Error("expected a cache miss")
	}
}

func TestIdentityCacheInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	user := &models.User{ID: "u1", Email: "ana@example.com"}
	if err := c.Set(ctx, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Invalidate(ctx, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get(ctx, "u1"); ok {
		t.Error("expected a miss after invalidation")
	}
}

func TestIdentityCacheNilClient(t *testing.T) {
	c := NewIdentityCache(nil)
	ctx := context.Background()

	// Writes are no-ops and reads miss; nothing errors.
	if err := c.Set(ctx, &models.User{ID: "u1"}); err != nil {
		t.Fatalf("nil-client set should be a no-op, got %v", err)
	}
	if _, ok := c.Get(ctx, "u1"); ok {
		t.Error("nil-client get should miss")
	}
}
