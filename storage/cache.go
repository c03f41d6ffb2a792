package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"flowboard-api/config"
	"flowboard-api/domain"
)

// ViewBackend is the uncached source for the page aggregates.
type ViewBackend interface {
	FetchProjectDetail(ctx context.Context, projectID string) (*domain.ProjectDetail, error)
	FetchProjectList(ctx context.Context, userID string) ([]domain.Project, error)
	FetchTeamList(ctx context.Context, userID string) ([]domain.Team, error)
	FetchUnreadCount(ctx context.Context, userID string) (int, error)
}

// Cache key namespaces, one per aggregate kind.
func ProjectKey(projectID string) string  { return "project:" + projectID }
func ProjectListKey(userID string) string { return "projects:" + userID }
func TeamListKey(userID string) string    { return "teams:" + userID }
func UnreadKey(userID string) string      { return "unread:" + userID }

// Cache wraps a ViewBackend with Redis-backed memoization. Entries are
// populated lazily on read-miss with a fixed TTL and invalidated by
// deletion only; a missed invalidation self-heals within the TTL window.
// Redis failures never propagate: reads fall back to the backend and
// writes/deletes are ignored.
type Cache struct {
	base  ViewBackend
	redis *redis.Client
	ttl   config.CacheConfig
}

// NewCache creates a caching view wrapper using the provided Redis
// client and per-aggregate TTLs.
func NewCache(base ViewBackend, client *redis.Client, ttl config.CacheConfig) *Cache {
	if base == nil {
		panic("storage.NewCache: base view backend is nil")
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) FetchProjectDetail(ctx context.Context, projectID string) (*domain.ProjectDetail, error) {
	key := ProjectKey(projectID)
	var cached domain.ProjectDetail
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	detail, err := c.base.FetchProjectDetail(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, detail, c.ttl.ProjectDetailTTL)
	return detail, nil
}

func (c *Cache) FetchProjectList(ctx context.Context, userID string) ([]domain.Project, error) {
	key := ProjectListKey(userID)
	var cached []domain.Project
	if c.load(ctx, key, &cached) {
		return cached, nil
	}

	projects, err := c.base.FetchProjectList(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, projects, c.ttl.ProjectListTTL)
	return projects, nil
}

func (c *Cache) FetchTeamList(ctx context.Context, userID string) ([]domain.Team, error) {
	key := TeamListKey(userID)
	var cached []domain.Team
	if c.load(ctx, key, &cached) {
		return cached, nil
	}

	teams, err := c.base.FetchTeamList(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, teams, c.ttl.TeamListTTL)
	return teams, nil
}

func (c *Cache) FetchUnreadCount(ctx context.Context, userID string) (int, error) {
	key := UnreadKey(userID)
	if c.redis != nil {
		data, err := c.redis.Get(ctx, key).Result()
		if err == nil {
			if count, convErr := strconv.Atoi(data); convErr == nil {
				return count, nil
			}
			_ = c.redis.Del(ctx, key).Err()
		} else if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
	}

	count, err := c.base.FetchUnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if c.redis != nil && c.ttl.UnreadCountTTL > 0 {
		_ = c.redis.Set(ctx, key, strconv.Itoa(count), c.ttl.UnreadCountTTL).Err()
	}
	return count, nil
}

// Invalidate deletes the given keys in a single variadic DEL. Mutations
// never write replacement values directly; two concurrent mutations
// racing to SET could leave the loser's stale aggregate behind, a DEL
// cannot. Failure is ignored: staleness is bounded by the TTL.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func (c *Cache) load(ctx context.Context, key string, dst any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors drop the key and fall back to the backend.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.redis == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, ttl).Err()
}
