// Package cache keeps profile search results in Redis.
//
// Invalidation uses a version counter instead of deleting keys: every search
// key embeds the current value of profiles:search:version, and a profile
// write bumps it with INCR. Old entries are never read again and expire on
// their own TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sakif/mentorship-platform/internal/config"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
)

const profileVersionKey = "profiles:search:version"

type RedisCache struct {
	Client *redis.Client
	ttl    time.Duration
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return New(redis.NewClient(opts), cfg.Redis.TTL)
}

// New wraps an existing client. Tests point it at miniredis.
func New(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: client, ttl: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// ProfilesVersion returns the current search generation. A search reads it
// once and passes it to both GetProfiles and SetProfiles, so a result read
// from the database before an invalidation is written under the old
// generation and never served.
func (c *RedisCache) ProfilesVersion(ctx context.Context) (int64, error) {
	version, err := c.Client.Get(ctx, profileVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("cache: reading version: %w", err)
	}
	return version, nil
}

// GetProfiles returns the result cached for filter in generation version.
// ok is false on a miss.
func (c *RedisCache) GetProfiles(ctx context.Context, version int64, filter repository.ProfileFilter) (profiles []model.PublicProfile, ok bool, err error) {
	key := searchKey(version, filter)

	raw, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil // cache miss
	} else if err != nil {
		return nil, false, fmt.Errorf("cache: reading %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, false, fmt.Errorf("cache: decoding %s: %w", key, err)
	}
	return profiles, true, nil
}

// SetProfiles stores a search result in generation version.
func (c *RedisCache) SetProfiles(ctx context.Context, version int64, filter repository.ProfileFilter, profiles []model.PublicProfile) error {
	raw, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("cache: encoding profiles: %w", err)
	}
	return c.Client.Set(ctx, searchKey(version, filter), raw, c.ttl).Err()
}

// InvalidateProfiles makes every cached search result stale.
func (c *RedisCache) InvalidateProfiles(ctx context.Context) error {
	return c.Client.Incr(ctx, profileVersionKey).Err()
}

func searchKey(version int64, filter repository.ProfileFilter) string {
	return fmt.Sprintf("profiles:search:v%d:%s", version, filterHash(filter))
}

// filterHash is stable across value order and case, matching how the
// search itself compares values.
func filterHash(filter repository.ProfileFilter) string {
	normalized := struct {
		Role      string   `json:"r"`
		Skills    []string `json:"s"`
		Interests []string `json:"i"`
	}{
		Role:      string(filter.Role),
		Skills:    normalize(filter.Skills),
		Interests: normalize(filter.Interests),
	}
	raw, _ := json.Marshal(normalized)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	slices.Sort(out)
	return slices.Compact(out)
}
