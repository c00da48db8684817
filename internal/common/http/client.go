// internal/common/http/client.go

// Package http wraps the standard client with the request shape the
// pipeline's read-only JSON APIs share: an Accept header, an optional
// bearer credential, and context-bound execution.
package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
	bearer     string
}

// NewClient builds a client with a hard timeout. The bearer credential is
// optional; when set it is attached to every request.
func NewClient(timeout time.Duration, bearer string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		bearer: bearer,
	}
}

// GetJSON issues a GET and decodes a 200 response body into out. Any other
// status is returned undecoded, with the body drained, so callers can map
// it to their domain errors. The status is 0 when the request itself
// failed.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}
