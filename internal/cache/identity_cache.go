package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schoolsuite/school-service/internal/models"
)

// identityTTL is deliberately short: identity records back the auth
// middleware, and a stale record must age out quickly. Permission
// decisions are never cached at all.
const identityTTL = 2 * time.Minute

// IdentityCache caches identity records for the auth middleware so one
// bearer token does not cost one database read per request.
type IdentityCache struct {
	helper *Helper
}

func NewIdentityCache(client *redis.Client) *IdentityCache {
	return &IdentityCache{helper: NewHelper(client, "identity:")}
}

func (c *IdentityCache) Get(ctx context.Context, userID string) (*models.User, bool) {
	var user models.User
	if err := c.helper.Get(ctx, userID, &user); err != nil {
		return nil, false
	}
	return &user, true
}

func (c *IdentityCache) Set(ctx context.Context, user *models.User) error {
	return c.helper.Set(ctx, user.ID, user, identityTTL)
}

// Invalidate drops the cached record, for when roles or grants change.
func (c *IdentityCache) Invalidate(ctx context.Context, userID string) error {
	return c.helper.Delete(ctx, userID)
}

func (c *IdentityCache) HealthCheck(ctx context.Context) error {
	return c.helper.HealthCheck(ctx)
}
