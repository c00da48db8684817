// internal/profile/analyzer.go
package profile

import (
	"context"

	"refcheck/internal/common/config"
	"refcheck/internal/common/logger"
	"refcheck/internal/models"
)

// repoLister is the slice of Client the analyzer needs; tests substitute it.
type repoLister interface {
	ListRepos(ctx context.Context, handle string, limit int) ([]Repo, error)
	CountCommits(ctx context.Context, handle, repo string, max int) (int, error)
}

// Analyzer produces a ProfileSummary for one handle. It never returns an
// error: no handle yields the skipped sentinel, a lookup failure yields the
// failed sentinel, and a single bad repository degrades to a partial result.
type Analyzer struct {
	client            repoLister
	maxReposScanned   int
	maxReposSampled   int
	maxCommitsPerRepo int
	logger            logger.Logger
}

func NewAnalyzer(client repoLister, cfg *config.ProfileConfig, log logger.Logger) *Analyzer {
	return &Analyzer{
		client:            client,
		maxReposScanned:   cfg.MaxReposScanned,
		maxReposSampled:   cfg.MaxReposSampled,
		maxCommitsPerRepo: cfg.MaxCommitsPerRepo,
		logger:            log.WithFields(map[string]interface{}{"component": "profile-analyzer"}),
	}
}

func (a *Analyzer) Analyze(ctx context.Context, handle string) *models.ProfileSummary {
	if handle == "" {
		return models.SkippedProfile()
	}

	repos, err := a.client.ListRepos(ctx, handle, a.maxReposScanned)
	if err != nil {
		a.logger.Warn("profile lookup failed", map[string]interface{}{
			"handle": handle,
			"error":  err.Error(),
		})
		return models.FailedProfile(handle, err.Error())
	}

	summary := &models.ProfileSummary{
		Status:    models.ProfileAnalyzed,
		Handle:    handle,
		Languages: make(map[string]int),
	}

	for _, repo := range repos {
		if repo.Fork {
			summary.ForkedRepos++
		} else {
			summary.OriginalRepos++
		}
		summary.TotalStars += repo.Stars
		if repo.Language != "" {
			summary.Languages[repo.Language]++
		}
	}

	// Commit activity is estimated from the most recently pushed repos
	// only. Exhaustive enumeration would cost one request per repo page
	// and the rules only need an order-of-magnitude signal.
	sampled := repos
	if len(sampled) > a.maxReposSampled {
		sampled = sampled[:a.maxReposSampled]
	}
	for _, repo := range sampled {
		count, err := a.client.CountCommits(ctx, handle, repo.Name, a.maxCommitsPerRepo)
		if err != nil {
			// One broken repo must not abort the whole analysis.
			a.logger.Debug("commit listing failed, continuing", map[string]interface{}{
				"handle": handle,
				"repo":   repo.Name,
				"error":  err.Error(),
			})
			continue
		}
		summary.ApproxCommits += count
		summary.SampledRepos++
	}

	return summary
}
