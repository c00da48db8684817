// internal/profile/analyzer_test.go
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refcheck/internal/common/config"
	"refcheck/internal/common/logger"
	"refcheck/internal/models"
)

func testProfileConfig(baseURL string) *config.ProfileConfig {
	return &config.ProfileConfig{
		BaseURL:           baseURL,
		MaxReposScanned:   30,
		MaxReposSampled:   10,
		MaxCommitsPerRepo: 100,
	}
}

func newAnalyzerAgainst(t *testing.T, handler http.Handler) (*Analyzer, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "", 5*time.Second)
	return NewAnalyzer(client, testProfileConfig(srv.URL), logger.NewTestLogger(t)), srv
}

func writeRepos(w http.ResponseWriter, repos []Repo) {
	_ = json.NewEncoder(w).Encode(repos)
}

func writeCommits(w http.ResponseWriter, n int) {
	commits := make([]map[string]string, n)
	for i := range commits {
		commits[i] = map[string]string{"sha": fmt.Sprintf("sha-%d", i)}
	}
	_ = json.NewEncoder(w).Encode(commits)
}

func TestAnalyzer_Analyze_NoHandle(t *testing.T) {
	a, _ := newAnalyzerAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty handle")
	}))

	summary := a.Analyze(context.Background(), "")
	assert.Equal(t, models.ProfileSkipped, summary.Status)
	assert.False(t, summary.Analyzed())
}

func TestAnalyzer_Analyze_Success(t *testing.T) {
	a, _ := newAnalyzerAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/users/jordanc/repos"):
			writeRepos(w, []Repo{
				{Name: "svc-a", Language: "Go", Stars: 12},
				{Name: "svc-b", Language: "Go", Stars: 3},
				{Name: "web", Language: "TypeScript", Stars: 1},
				{Name: "dotfiles", Fork: true, Language: "Shell"},
			})
		case strings.Contains(r.URL.Path, "/commits"):
			writeCommits(w, 40)
		default:
			http.NotFound(w, r)
		}
	}))

	summary := a.Analyze(context.Background(), "jordanc")
	require.True(t, summary.Analyzed())
	assert.Equal(t, 3, summary.OriginalRepos)
	assert.Equal(t, 1, summary.ForkedRepos)
	assert.Equal(t, 16, summary.TotalStars)
	assert.Equal(t, map[string]int{"Go": 2, "TypeScript": 1, "Shell": 1}, summary.Languages)
	assert.Equal(t, 160, summary.ApproxCommits)
	assert.Equal(t, 4, summary.SampledRepos)
}

func TestAnalyzer_Analyze_CommitSamplingCapped(t *testing.T) {
	var commitRequests int
	a, _ := newAnalyzerAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/repos"):
			if strings.Contains(r.URL.Path, "/commits") {
				commitRequests++
				writeCommits(w, 5)
				return
			}
			repos := make([]Repo, 25)
			for i := range repos {
				repos[i] = Repo{Name: fmt.Sprintf("repo-%d", i), Language: "Go"}
			}
			writeRepos(w, repos)
		default:
			http.NotFound(w, r)
		}
	}))

	summary := a.Analyze(context.Background(), "busydev")
	require.True(t, summary.Analyzed())
	// Language histogram covers every scanned repo, commits only the cap.
	assert.Equal(t, 25, summary.Languages["Go"])
	assert.Equal(t, 10, commitRequests)
	assert.Equal(t, 10, summary.SampledRepos)
	assert.Equal(t, 50, summary.ApproxCommits)
}

func TestAnalyzer_Analyze_PartialCommitFailureTolerated(t *testing.T) {
	a, _ := newAnalyzerAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/users/"):
			writeRepos(w, []Repo{
				{Name: "good", Language: "Go"},
				{Name: "broken", Language: "Go"},
				{Name: "also-good", Language: "Go"},
			})
		case strings.Contains(r.URL.Path, "/broken/commits"):
			w.WriteHeader(http.StatusInternalServerError)
		case strings.Contains(r.URL.Path, "/commits"):
			writeCommits(w, 10)
		default:
			http.NotFound(w, r)
		}
	}))

	summary := a.Analyze(context.Background(), "jordanc")
	require.True(t, summary.Analyzed())
	assert.Equal(t, 20, summary.ApproxCommits)
	assert.Equal(t, 2, summary.SampledRepos)
	assert.Equal(t, 3, summary.Languages["Go"])
}

func TestAnalyzer_Analyze_NotFound(t *testing.T) {
	a, _ := newAnalyzerAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	summary := a.Analyze(context.Background(), "ghost")
	assert.Equal(t, models.ProfileFailed, summary.Status)
	assert.Equal(t, "ghost", summary.Handle)
	assert.Contains(t, summary.Error, "PROFILE_NOT_FOUND")
}

func TestAnalyzer_Analyze_RateLimited(t *testing.T) {
	a, _ := newAnalyzerAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	summary := a.Analyze(context.Background(), "jordanc")
	assert.Equal(t, models.ProfileFailed, summary.Status)
	assert.Contains(t, summary.Error, "PROFILE_RATE_LIMITED")
}

func TestAnalyzer_Analyze_ServerError(t *testing.T) {
	a, _ := newAnalyzerAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	summary := a.Analyze(context.Background(), "jordanc")
	assert.Equal(t, models.ProfileFailed, summary.Status)
}

func TestClient_BearerTokenForwarded(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeRepos(w, nil)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok-123", 5*time.Second)
	_, err := client.ListRepos(context.Background(), "jordanc", 30)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}
