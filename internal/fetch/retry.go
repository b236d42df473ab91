package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Retry policy defaults: up to 3 retries (4 total attempts) with delays of
// 300ms, 900ms, 2700ms before attempts 2, 3, and 4.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 300 * time.Millisecond
)

// Client wraps a Fetcher with bounded exponential-backoff retry for
// idempotent calls. Only transport failures (network errors, timeouts) and
// the transient statuses 500, 502, and 504 are retried; every other non-2xx
// status fails immediately. Each retry reissues the exact original request.
type Client struct {
	fetcher    *Fetcher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewClient creates a retrying client whose individual attempts are bounded
// by timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		fetcher:    NewFetcher(timeout),
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		logger:     logger,
	}
}

// Get issues a GET request with retries.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, header)
}

// Post issues a POST request with retries. The body is replayed verbatim on
// each attempt.
func (c *Client) Post(ctx context.Context, url string, body []byte, header http.Header) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, body, header)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, header http.Header) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(c.baseDelay, attempt-1)
			c.logger.Debug("retrying request",
				"method", method,
				"url", url,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			if !sleepContext(ctx, delay) {
				return nil, fmt.Errorf("%s %s: %w", method, url, ctx.Err())
			}
		}

		resp, err := c.fetcher.Do(ctx, method, url, body, header)
		if err != nil {
			// No response at all: network error or timeout, retryable.
			lastErr = err
			continue
		}
		if retryableStatus(resp.Status) {
			lastErr = &StatusError{Status: resp.Status}
			continue
		}
		if resp.Status < 200 || resp.Status >= 300 {
			return nil, fmt.Errorf("%s %s: %w", method, url, &StatusError{Status: resp.Status})
		}
		return resp, nil
	}

	return nil, fmt.Errorf("%s %s failed after %d attempts: %w", method, url, c.maxRetries+1, lastErr)
}

// retryableStatus reports whether a status code indicates a transient
// upstream failure. 503 is deliberately absent: the agencies use it for
// planned maintenance windows that outlast any reasonable backoff.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoffDelay returns base * 3^(k-1) for the k-th retry (1-indexed).
func backoffDelay(base time.Duration, k int) time.Duration {
	d := base
	for i := 1; i < k; i++ {
		d *= 3
	}
	return d
}

// sleepContext waits for d or until the context is cancelled. Returns false
// on cancellation.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// IsTimeout reports whether err was ultimately caused by a request deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
