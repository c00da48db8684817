// internal/profile/client.go

// Package profile analyzes a candidate's public code-contribution profile.
// Lookup never returns an error to the pipeline: failures collapse into the
// failed-profile sentinel so a broken or missing profile degrades the run
// instead of aborting it.
package profile

import (
	"context"
	"fmt"
	"net/http"
	"time"

	httpclient "refcheck/internal/common/http"

	"refcheck/internal/common/errors"
)

// Repo is the subset of the profile service's repository document we read.
type Repo struct {
	Name       string    `json:"name"`
	Fork       bool      `json:"fork"`
	Stars      int       `json:"stargazers_count"`
	Language   string    `json:"language"`
	PushedAt   time.Time `json:"pushed_at"`
	OwnerLogin string    `json:"-"`
}

type commitEntry struct {
	SHA string `json:"sha"`
}

// Client talks to the read-only profile HTTP API. The bearer token is
// optional; supplying one raises the service's rate limits.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpclient.NewClient(timeout, token),
	}
}

// ListRepos returns up to limit repositories ordered by most recent push.
func (c *Client) ListRepos(ctx context.Context, handle string, limit int) ([]Repo, error) {
	url := fmt.Sprintf("%s/users/%s/repos?sort=pushed&per_page=%d", c.baseURL, handle, limit)

	var repos []Repo
	if err := c.getJSON(ctx, handle, url, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// CountCommits returns the number of commits observed in one page of the
// repository's commit listing, capped at max. One page is enough: the
// analyzer wants an activity estimate, not an exhaustive count.
func (c *Client) CountCommits(ctx context.Context, handle, repo string, max int) (int, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=%d", c.baseURL, handle, repo, max)

	var commits []commitEntry
	if err := c.getJSON(ctx, handle, url, &commits); err != nil {
		return 0, err
	}
	return len(commits), nil
}

// getJSON maps the service's failure modes onto the profile error codes.
func (c *Client) getJSON(ctx context.Context, handle, url string, out interface{}) error {
	status, err := c.http.GetJSON(ctx, url, out)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.NewProfileTimeoutError(handle)
		}
		return errors.NewProfileLookupError(handle, err)
	}

	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return errors.NewProfileNotFoundError(handle)
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return errors.NewProfileRateLimitedError(handle)
	case status >= 500:
		return errors.NewProfileLookupError(handle, fmt.Errorf("status %d", status))
	default:
		return errors.NewProfileLookupError(handle, fmt.Errorf("unexpected status %d", status))
	}
}
