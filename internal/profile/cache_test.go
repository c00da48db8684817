// internal/profile/cache_test.go
package profile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refcheck/internal/common/logger"
	"refcheck/internal/models"
)

type countingSummarizer struct {
	calls   int
	summary *models.ProfileSummary
}

func (c *countingSummarizer) Analyze(_ context.Context, _ string) *models.ProfileSummary {
	c.calls++
	return c.summary
}

func newCacheFixture(t *testing.T, inner Summarizer) (*CachedAnalyzer, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewCachedAnalyzer(inner, rdb, 15*time.Minute, logger.NewTestLogger(t)), mr
}

func TestCachedAnalyzer_CachesAnalyzedSummaries(t *testing.T) {
	inner := &countingSummarizer{summary: &models.ProfileSummary{
		Status:        models.ProfileAnalyzed,
		Handle:        "jordanc",
		OriginalRepos: 5,
		Languages:     map[string]int{"Go": 5},
	}}
	cached, _ := newCacheFixture(t, inner)
	ctx := context.Background()

	first := cached.Analyze(ctx, "jordanc")
	second := cached.Analyze(ctx, "jordanc")

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first.OriginalRepos, second.OriginalRepos)
	assert.Equal(t, first.Languages, second.Languages)
}

func TestCachedAnalyzer_FailedSummariesNotCached(t *testing.T) {
	inner := &countingSummarizer{summary: models.FailedProfile("jordanc", "boom")}
	cached, _ := newCacheFixture(t, inner)
	ctx := context.Background()

	cached.Analyze(ctx, "jordanc")
	cached.Analyze(ctx, "jordanc")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedAnalyzer_EmptyHandleSkipsCache(t *testing.T) {
	inner := &countingSummarizer{summary: &models.ProfileSummary{Status: models.ProfileAnalyzed}}
	cached, mr := newCacheFixture(t, inner)

	summary := cached.Analyze(context.Background(), "")
	assert.Equal(t, models.ProfileSkipped, summary.Status)
	assert.Zero(t, inner.calls)
	assert.Empty(t, mr.Keys())
}

func TestCachedAnalyzer_ReadsExistingEntry(t *testing.T) {
	inner := &countingSummarizer{summary: &models.ProfileSummary{Status: models.ProfileAnalyzed}}
	cached, mr := newCacheFixture(t, inner)

	stored := &models.ProfileSummary{
		Status:     models.ProfileAnalyzed,
		Handle:     "jordanc",
		TotalStars: 99,
	}
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, mr.Set("profile:jordanc", string(data)))

	summary := cached.Analyze(context.Background(), "jordanc")
	assert.Equal(t, 99, summary.TotalStars)
	assert.Zero(t, inner.calls)
}

func TestCachedAnalyzer_CacheWriteFailureIsNonFatal(t *testing.T) {
	inner := &countingSummarizer{summary: &models.ProfileSummary{
		Status: models.ProfileAnalyzed,
		Handle: "jordanc",
	}}

	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("profile:jordanc").RedisNil()
	mock.Regexp().ExpectSet("profile:jordanc", `.*`, 15*time.Minute).SetErr(assert.AnError)

	cached := NewCachedAnalyzer(inner, rdb, 15*time.Minute, logger.NewTestLogger(t))

	summary := cached.Analyze(context.Background(), "jordanc")
	assert.True(t, summary.Analyzed())
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedAnalyzer_EntryExpires(t *testing.T) {
	inner := &countingSummarizer{summary: &models.ProfileSummary{
		Status: models.ProfileAnalyzed,
		Handle: "jordanc",
	}}
	cached, mr := newCacheFixture(t, inner)
	ctx := context.Background()

	cached.Analyze(ctx, "jordanc")
	mr.FastForward(16 * time.Minute)
	cached.Analyze(ctx, "jordanc")

	assert.Equal(t, 2, inner.calls)
}
