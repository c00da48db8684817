// internal/common/http/client_test.go
package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_DecodesOKResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"octocat"}`))
	}))
	defer srv.Close()

	client := NewClient(2*time.Second, "tok-123")

	var out struct {
		Name string `json:"name"`
	}
	status, err := client.GetJSON(context.Background(), srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "octocat", out.Name)
}

func TestGetJSON_NoBearerHeaderWhenEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(2*time.Second, "")

	var out map[string]interface{}
	status, err := client.GetJSON(context.Background(), srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestGetJSON_ReturnsNonOKStatusUndecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	client := NewClient(2*time.Second, "")

	var out struct {
		Name string `json:"name"`
	}
	status, err := client.GetJSON(context.Background(), srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Empty(t, out.Name)
}

func TestGetJSON_TransportErrorReportsStatusZero(t *testing.T) {
	client := NewClient(500*time.Millisecond, "")

	var out map[string]interface{}
	status, err := client.GetJSON(context.Background(), "http://127.0.0.1:1/none", &out)
	require.Error(t, err)
	assert.Equal(t, 0, status)
}

func TestGetJSON_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, "")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out map[string]interface{}
	status, err := client.GetJSON(ctx, srv.URL, &out)
	require.Error(t, err)
	assert.Equal(t, 0, status)
}
