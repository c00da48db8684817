// internal/profile/cache.go
package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"refcheck/internal/common/logger"
	"refcheck/internal/models"
)

// Summarizer is what the pipeline consumes; both Analyzer and CachedAnalyzer
// satisfy it.
type Summarizer interface {
	Analyze(ctx context.Context, handle string) *models.ProfileSummary
}

// CachedAnalyzer wraps an Analyzer with a redis cache-aside. Only successful
// summaries are cached; skipped and failed sentinels always re-evaluate so a
// transient outage does not get pinned for the TTL.
type CachedAnalyzer struct {
	inner  Summarizer
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedAnalyzer(inner Summarizer, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "profile-cache"}),
	}
}

func cacheKey(handle string) string {
	return "profile:" + handle
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, handle string) *models.ProfileSummary {
	if handle == "" {
		return models.SkippedProfile()
	}

	if val, err := c.redis.Get(ctx, cacheKey(handle)).Result(); err == nil {
		var summary models.ProfileSummary
		if err := json.Unmarshal([]byte(val), &summary); err == nil {
			return &summary
		}
	}

	summary := c.inner.Analyze(ctx, handle)

	if summary.Analyzed() {
		if data, err := json.Marshal(summary); err == nil {
			if err := c.redis.Set(ctx, cacheKey(handle), data, c.ttl).Err(); err != nil {
				c.logger.Debug("profile cache write failed", map[string]interface{}{
					"handle": handle,
					"error":  err.Error(),
				})
			}
		}
	}
	return summary
}
