package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Key prefixes. Prefix deletes rely on every key of a family sharing one.
const (
	PrefixUserProfile = "user:profile:"
	PrefixLeaderboard = "leaderboard:"
	PrefixCourses     = "courses:"
	PrefixLessons     = "lessons:"
	KeyAdminDashboard = "admin:dashboard"
	KeyCourseList     = PrefixCourses + "list"
)

func UserProfileKey(id uuid.UUID) string { return PrefixUserProfile + id.String() }

func LeaderboardKey(period string, limit int) string {
	return fmt.Sprintf("%s%s:%d", PrefixLeaderboard, period, limit)
}

func CourseKey(id int64) string { return fmt.Sprintf("%s%d", PrefixCourses, id) }

func CourseLessonsKey(courseID int64) string {
	return fmt.Sprintf("%scourse:%d", PrefixLessons, courseID)
}

func LessonKey(id int64) string { return fmt.Sprintf("%s%d", PrefixLessons, id) }

// Cache is a best-effort JSON cache over Redis. No method ever returns a
// Redis failure to the caller; a broken cache behaves like an empty one.
type Cache struct {
	client *redis.Client
	group  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetJSON decodes the cached value into dst. It reports whether dst was filled.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil || c.client == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: get %s failed: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("cache: corrupt value at %s, dropping: %v", key, err)
		c.Delete(ctx, key)
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: marshal %s failed: %v", key, err)
		return
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: delete %v failed: %v", keys, err)
	}
}

// DeletePrefix removes every key starting with prefix. It walks the keyspace
// with SCAN so a large cache never blocks Redis.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	if c == nil || c.client == nil || prefix == "" {
		return
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			log.Printf("cache: scan %s* failed: %v", prefix, err)
			return
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				log.Printf("cache: delete prefix %s failed: %v", prefix, err)
				return
			}
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Remember is cache-aside: serve key from cache, otherwise call load, store
// its result for ttl and decode it into dst. Concurrent misses for the same
// key share one load. Errors from load are returned untouched and nothing is
// cached.
func (c *Cache) Remember(ctx context.Context, key string, ttl time.Duration, dst any, load func(ctx context.Context) (any, error)) error {
	if c == nil {
		value, err := load(ctx)
		if err != nil {
			return err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, dst)
	}

	if c.GetJSON(ctx, key, dst) {
		return nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache: marshal %s: %w", key, err)
		}
		if c.client != nil {
			if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
				log.Printf("cache: set %s failed: %v", key, err)
			}
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(v.([]byte), dst)
}
