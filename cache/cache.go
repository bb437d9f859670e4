package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"coursecast/config"
	"coursecast/logger"
	"coursecast/types"
)

// CourseCache keeps course payloads in Redis so repeated loads don't hit the
// generation service. The cache is fail-open: any Redis problem degrades to a
// direct fetch, never to an error.
type CourseCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewCourseCache connects to Redis and verifies connectivity.
func NewCourseCache(addr, password string, log *logger.Logger) (*CourseCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &CourseCache{
		client: client,
		ttl:    config.CourseCacheTTL,
		log:    log,
	}, nil
}

func courseKey(courseID string) string {
	return "course:" + courseID
}

// Get returns the cached course, or nil on miss or cache failure.
func (c *CourseCache) Get(ctx context.Context, courseID string) *types.Course {
	raw, err := c.client.Get(ctx, courseKey(courseID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("course cache read failed", "course", courseID, "error", err)
		}
		return nil
	}

	var course types.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		c.log.Warn("course cache held malformed payload", "course", courseID, "error", err)
		return nil
	}
	return &course
}

// Set stores the course. Failures are logged and dropped.
func (c *CourseCache) Set(ctx context.Context, course *types.Course) {
	raw, err := json.Marshal(course)
	if err != nil {
		c.log.Warn("failed to marshal course for cache", "course", course.CourseID, "error", err)
		return
	}
	if err := c.client.Set(ctx, courseKey(course.CourseID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("course cache write failed", "course", course.CourseID, "error", err)
	}
}

func listKey(userEmail string) string {
	return "courses:" + userEmail
}

// GetList returns the user's cached course list, or nil on miss or failure.
func (c *CourseCache) GetList(ctx context.Context, userEmail string) []types.Course {
	raw, err := c.client.Get(ctx, listKey(userEmail)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("course list cache read failed", "user", userEmail, "error", err)
		}
		return nil
	}

	var courses []types.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		c.log.Warn("course list cache held malformed payload", "user", userEmail, "error", err)
		return nil
	}
	return courses
}

// SetList stores the user's course list with a short TTL; lists go stale
// quickly as courses are created.
func (c *CourseCache) SetList(ctx context.Context, userEmail string, courses []types.Course) {
	raw, err := json.Marshal(courses)
	if err != nil {
		c.log.Warn("failed to marshal course list for cache", "user", userEmail, "error", err)
		return
	}
	if err := c.client.Set(ctx, listKey(userEmail), raw, config.CourseListCacheTTL).Err(); err != nil {
		c.log.Warn("course list cache write failed", "user", userEmail, "error", err)
	}
}

// Invalidate drops the cached course, if any.
func (c *CourseCache) Invalidate(ctx context.Context, courseID string) {
	if err := c.client.Del(ctx, courseKey(courseID)).Err(); err != nil {
		c.log.Warn("course cache invalidation failed", "course", courseID, "error", err)
	}
}

// Close releases the Redis connection.
func (c *CourseCache) Close() error {
	return c.client.Close()
}
