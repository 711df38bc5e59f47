package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// cooldownPrefix is the Redis key prefix for visitor view cooldowns.
const cooldownPrefix = "viewable:cooldown:"

// CooldownKey identifies one visitor's view of one entity in one
// collection. Collection may be empty for the default collection.
type CooldownKey struct {
	EntityType string
	EntityID   string
	Collection string
	VisitorKey string
}

// String renders the Redis key for this cooldown entry.
func (k CooldownKey) String() string {
	collection := k.Collection
	if collection == "" {
		collection = "-"
	}
	var b strings.Builder
	b.WriteString(cooldownPrefix)
	b.WriteString(k.EntityType)
	b.WriteByte(':')
	b.WriteString(k.EntityID)
	b.WriteByte(':')
	b.WriteString(collection)
	b.WriteByte(':')
	b.WriteString(k.VisitorKey)
	return b.String()
}

// TryAcquireCooldown atomically claims the cooldown slot for a visitor.
// It returns true when no cooldown was active, meaning the view should be
// recorded; false means the visitor viewed this entity within the TTL.
// Redis errors fail open so an outage never drops views.
func (c *Cache) TryAcquireCooldown(ctx context.Context, key CooldownKey, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key.String(), "1", ttl).Result()
	if err != nil {
		return true, fmt.Errorf("cooldown setnx: %w", err)
	}
	return ok, nil
}

// ReleaseCooldown drops a cooldown entry, letting the visitor's next view
// count again immediately. Used when the recording insert fails after the
// slot was claimed.
func (c *Cache) ReleaseCooldown(ctx context.Context, key CooldownKey) error {
	return c.client.Del(ctx, key.String()).Err()
}
