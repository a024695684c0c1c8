package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyClient_GetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "khobor-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewRestyClient(5 * time.Second)
	resp, err := c.Get(context.Background(), srv.URL, map[string]string{"User-Agent": "khobor-test"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "ok", string(resp.Body()))
}

func TestRestyClient_DoPostsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"a":1}`, string(body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewRestyClient(5 * time.Second)
	resp, err := c.Do(context.Background(), "post", srv.URL, map[string]string{"Content-Type": "application/json"}, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode())
}

func TestRestyClient_NotFoundIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestRestyClient_RetriesGetOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := NewRestyClient(5*time.Second).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int32(3), hits.Load())
}

func TestRestyClient_DoesNotRetryPost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(5*time.Second).Do(context.Background(), http.MethodPost, srv.URL, nil, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
	assert.Equal(t, int32(1), hits.Load())
}

func TestRestyClient_WithRetryCountZero(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRestyClient(5*time.Second, WithRetryCount(0)).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRestyClient_WithResponseBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	c := NewRestyClient(5*time.Second, WithResponseBodyLimit(1024), WithRetryCount(0))
	_, err := c.Get(context.Background(), srv.URL, nil)
	assert.Error(t, err)

	resp, err := NewRestyClient(5*time.Second, WithResponseBodyLimit(8192)).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Body(), 4096)
}
