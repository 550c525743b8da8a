package task

import (
	"context"
	"fmt"
	"time"

	"github.com/daybook/server/internal/platform/logging"
	"github.com/sirupsen/logrus"
)

// AnalyticsCache is satisfied by *cache.Cache.
type AnalyticsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	DeletePattern(ctx context.Context, pattern string) error
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// CachedAnalytics is a cache-aside layer for analytics rollups. Failures
// are logged and treated as misses.
type CachedAnalytics struct {
	Cache AnalyticsCache
	Log   logrus.FieldLogger
}

func (c *CachedAnalytics) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logging.Discard()
	}
	return c.Log
}

// AnalyticsKey includes the calendar day so a rollup never outlives the
// day it was computed on, and the owner's generation so a rollup computed
// across an invalidation is written where no reader looks.
func AnalyticsKey(ownerID string, generation int64, days int, today time.Time) string {
	return fmt.Sprintf("analytics:%s:%d:%d:%s", ownerID, generation, days, today.Format(DateLayout))
}

func generationKey(ownerID string) string {
	return "analytics-gen:" + ownerID
}

// key resolves the rollup key under the owner's current generation. ok is
// false when caching is off or the generation cannot be read.
func (c *CachedAnalytics) key(ctx context.Context, ownerID string, days int, today time.Time) (string, bool) {
	if c == nil || c.Cache == nil {
		return "", false
	}
	gen, err := c.Cache.Counter(ctx, generationKey(ownerID))
	if err != nil {
		c.logger().WithError(err).WithField("owner", ownerID).Warn("analytics cache generation read failed")
		return "", false
	}
	return AnalyticsKey(ownerID, gen, days, today), true
}

func (c *CachedAnalytics) lookup(ctx context.Context, key string) (Analytics, bool) {
	if c == nil || c.Cache == nil {
		return Analytics{}, false
	}
	var a Analytics
	found, err := c.Cache.Get(ctx, key, &a)
	if err != nil {
		c.logger().WithError(err).WithField("key", key).Warn("analytics cache read failed")
		return Analytics{}, false
	}
	return a, found
}

func (c *CachedAnalytics) store(ctx context.Context, key string, a Analytics) {
	if c == nil || c.Cache == nil {
		return
	}
	if err := c.Cache.Set(ctx, key, a); err != nil {
		c.logger().WithError(err).WithField("key", key).Warn("analytics cache write failed")
	}
}

// Invalidate bumps the owner's generation, then drops the rollups already
// cached for the owner.
func (c *CachedAnalytics) Invalidate(ctx context.Context, ownerID string) {
	if c == nil || c.Cache == nil {
		return
	}
	if _, err := c.Cache.Incr(ctx, generationKey(ownerID)); err != nil {
		c.logger().WithError(err).WithField("owner", ownerID).Warn("analytics cache generation bump failed")
	}
	if err := c.Cache.DeletePattern(ctx, "analytics:"+ownerID+":*"); err != nil {
		c.logger().WithError(err).WithField("owner", ownerID).Warn("analytics cache invalidation failed")
	}
}
