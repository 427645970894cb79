package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	dom "tasklist/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "task:"
	keyList      = "list"
	keyListByDue = "list:due"
	keyOverdue   = "overdue"
	keySearch    = "search"
)

// TaskCache caches per-user task query results in Redis. Keys embed the
// owning user ID, so a cache hit can never cross a user boundary.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

func userKey(userID int64, parts ...string) string {
	return keyPrefix + strconv.FormatInt(userID, 10) + ":" + strings.Join(parts, ":")
}

func (c *TaskCache) get(ctx context.Context, key string) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.Task
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *TaskCache) set(ctx context.Context, key string, list []dom.Task) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// GetList returns the cached list for the user or nil if miss.
func (c *TaskCache) GetList(ctx context.Context, userID int64, sortByDue bool) ([]dom.Task, error) {
	return c.get(ctx, listKey(userID, sortByDue))
}

// SetList stores the user's list in cache.
func (c *TaskCache) SetList(ctx context.Context, userID int64, sortByDue bool, list []dom.Task) error {
	return c.set(ctx, listKey(userID, sortByDue), list)
}

func listKey(userID int64, sortByDue bool) string {
	if sortByDue {
		return userKey(userID, keyListByDue)
	}
	return userKey(userID, keyList)
}

// GetSearch returns the cached search result for query q, or nil if miss.
func (c *TaskCache) GetSearch(ctx context.Context, userID int64, q string) ([]dom.Task, error) {
	return c.get(ctx, userKey(userID, keySearch, normalizeQuery(q)))
}

// SetSearch stores the search result in cache.
func (c *TaskCache) SetSearch(ctx context.Context, userID int64, q string, list []dom.Task) error {
	return c.set(ctx, userKey(userID, keySearch, normalizeQuery(q)), list)
}

// GetOverdue returns the cached overdue list or nil if miss.
func (c *TaskCache) GetOverdue(ctx context.Context, userID int64) ([]dom.Task, error) {
	return c.get(ctx, userKey(userID, keyOverdue))
}

// SetOverdue stores the overdue list in cache.
func (c *TaskCache) SetOverdue(ctx context.Context, userID int64, list []dom.Task) error {
	return c.set(ctx, userKey(userID, keyOverdue), list)
}

// InvalidateUser removes all cached entries for the user (cache invalidation on write).
func (c *TaskCache) InvalidateUser(ctx context.Context, userID int64) error {
	iter := c.rdb.Scan(ctx, 0, userKey(userID, "*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
