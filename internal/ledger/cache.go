package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const balanceKeyPrefix = "ledger:balance:"

// BalanceCache serves customer due_payment reads from Redis. Every recompute
// invalidates the entry, so a warm hit is never staler than the last write.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache instantiates the cache helper.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

// Get returns the cached balance for a customer when present.
func (c *BalanceCache) Get(ctx context.Context, customerID int64) (float64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	val, err := c.client.Get(ctx, balanceKey(customerID)).Result()
	if err != nil {
		return 0, false
	}
	due, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return due, true
}

// Set stores a customer's balance with the configured TTL.
func (c *BalanceCache) Set(ctx context.Context, customerID int64, due float64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, balanceKey(customerID), strconv.FormatFloat(due, 'f', 2, 64), c.ttl).Err()
}

// Invalidate drops the cached balance after a recompute.
func (c *BalanceCache) Invalidate(ctx context.Context, customerID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, balanceKey(customerID)).Err()
}

func balanceKey(customerID int64) string {
	return fmt.Sprintf("%s%d", balanceKeyPrefix, customerID)
}
