// Package cache stores resolved admin sets in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"admin-geocoder/internal/models"

	"github.com/redis/go-redis/v9"
)

// ResolveCache caches resolve responses keyed by coordinate and code.
type ResolveCache struct {
	rc     *redis.Client
	ttl    time.Duration
	prefix string
}

// NewResolveCache creates a cache scoped to a dataset. A non-positive ttl
// defaults to one hour.
func NewResolveCache(rc *redis.Client, dataset string, ttl time.Duration) *ResolveCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResolveCache{rc: rc, ttl: ttl, prefix: "admins:" + dataset + ":"}
}

// Key is built from the exact coordinate and the normalized code. Rounding
// would let points on both sides of a boundary share an entry.
func (c *ResolveCache) Key(lat, lon float64, code string) string {
	return c.prefix +
		strconv.FormatFloat(lat, 'f', -1, 64) + ":" +
		strconv.FormatFloat(lon, 'f', -1, 64) + ":" +
		models.NormalizeCode(code)
}

// Get returns the cached admins and whether the key was present.
func (c *ResolveCache) Get(ctx context.Context, key string) ([]*models.Admin, bool, error) {
	s, err := c.rc.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: failed to get %s: %w", key, err)
	}
	var admins []*models.Admin
	if err := json.Unmarshal([]byte(s), &admins); err != nil {
		return nil, false, fmt.Errorf("cache: failed to decode %s: %w", key, err)
	}
	return admins, true, nil
}

// Set stores admins under key.
func (c *ResolveCache) Set(ctx context.Context, key string, admins []*models.Admin) error {
	b, err := json.Marshal(admins)
	if err != nil {
		return fmt.Errorf("cache: failed to encode %s: %w", key, err)
	}
	if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to set %s: %w", key, err)
	}
	return nil
}
