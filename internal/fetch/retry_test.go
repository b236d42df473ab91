package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(timeout time.Duration) *Client {
	return &Client{
		fetcher:    NewFetcher(timeout),
		maxRetries: defaultMaxRetries,
		baseDelay:  time.Millisecond, // real backoff ratios, test-speed delays
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_SucceedsFirstAttempt(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := testClient(time.Second).Get(context.Background(), server.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_RetriesTransientStatusThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	resp, err := testClient(time.Second).Get(context.Background(), server.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, "recovered", string(resp.Body))
	assert.Equal(t, int32(4), attempts.Load(), "three 502s then success is exactly four attempts")
}

func TestClient_ExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(time.Second).Get(context.Background(), server.URL, nil)

	require.Error(t, err)
	assert.Equal(t, int32(4), attempts.Load())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Contains(t, err.Error(), "failed after 4 attempts")
}

func TestClient_NonTransientStatusFailsImmediately(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"forbidden", http.StatusForbidden},
		{"rate limited", http.StatusTooManyRequests},
		{"maintenance", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := testClient(time.Second).Get(context.Background(), server.URL, nil)

			require.Error(t, err)
			assert.Equal(t, int32(1), attempts.Load(), "non-transient status must not be retried")

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.Status)
		})
	}
}

func TestClient_RetriesNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	start := time.Now()
	_, err := testClient(time.Second).Get(context.Background(), server.URL, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 4 attempts")
	// 1ms + 3ms + 9ms of backoff, far under a second.
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_TimeoutIsDistinguishable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := testClient(20 * time.Millisecond).Get(context.Background(), server.URL, nil)

	require.Error(t, err)
	assert.True(t, IsTimeout(err), "deadline expiry must surface as a timeout, got: %v", err)
}

func TestClient_ContextCancellationStopsRetrying(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(time.Second).Get(ctx, server.URL, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || IsTimeout(err))
}

func TestClient_PostReplaysBody(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		if len(bodies) < 2 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	resp, err := testClient(time.Second).Post(context.Background(), server.URL, []byte(`{"q":1}`), nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1], "retry must replay the original body")
}

func TestBackoffDelay(t *testing.T) {
	base := 300 * time.Millisecond
	assert.Equal(t, 300*time.Millisecond, backoffDelay(base, 1))
	assert.Equal(t, 900*time.Millisecond, backoffDelay(base, 2))
	assert.Equal(t, 2700*time.Millisecond, backoffDelay(base, 3))
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, retryableStatus(500))
	assert.True(t, retryableStatus(502))
	assert.True(t, retryableStatus(504))

	assert.False(t, retryableStatus(503))
	assert.False(t, retryableStatus(404))
	assert.False(t, retryableStatus(429))
	assert.False(t, retryableStatus(200))
}
