// Package fetch provides the HTTP layer shared by all source normalizers:
// a timeout-bounded single-request fetcher and a retrying client with
// bounded exponential backoff.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ErrTimeout marks a request that was cancelled because its deadline
// expired, distinguishable from other transport failures via errors.Is.
var ErrTimeout = errors.New("request deadline exceeded")

// StatusError is a non-2xx HTTP response surfaced as an error.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Response is a fully-read HTTP response. The body is drained eagerly so a
// response can outlive its connection and retries can reuse request bodies.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DefaultTimeout bounds a single request when the caller does not configure
// one.
const DefaultTimeout = 30 * time.Second

// Fetcher issues one HTTP request under a hard deadline. It does not retry
// and does not log; both are the retrying client's concern.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewFetcher creates a fetcher whose requests are each cancelled after the
// given timeout. A non-positive timeout falls back to DefaultTimeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		// Cancellation runs through the per-request context deadline, not
		// http.Client.Timeout, so a caller-supplied context can still cut
		// the request short earlier.
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// Do issues a single request and reads the full body. A nil body sends no
// request body. On deadline expiry the in-flight request is cancelled and
// the returned error wraps ErrTimeout; any other transport failure is
// returned as-is (a network error). Non-2xx statuses are not errors here.
func (f *Fetcher) Do(ctx context.Context, method, url string, body []byte, header http.Header) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%s %s: %w", method, url, ErrTimeout)
		}
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("read %s: %w", url, ErrTimeout)
		}
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   data,
	}, nil
}

// isTimeout reports whether a transport error was caused by a deadline,
// either the context's or the connection's.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
