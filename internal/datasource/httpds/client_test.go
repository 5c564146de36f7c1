// These tests exercise the HTTP client wrapper: defaults and TLS settings,
// retry and backoff on transient failures, non-retryable statuses, and
// context-aware waits.

package httpds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

// noWait records backoff intervals without sleeping.
func noWait(rec *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*rec = append(*rec, d)
		return ctx.Err()
	}
}

// TestNewClient_Defaults verifies that NewClient applies defaults and sets
// TLS behavior when no custom Transport is supplied.
func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true, MaxRetries: -3})

	if c.httpClient.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v, want 30s", c.httpClient.Timeout)
	}
	if c.maxRetries != 0 {
		t.Fatalf("maxRetries = %d, want 0", c.maxRetries)
	}
	if c.initialBackoff != 200*time.Millisecond || c.maxBackoff != 5*time.Second {
		t.Fatalf("backoff = %v..%v, want 200ms..5s", c.initialBackoff, c.maxBackoff)
	}

	transport, ok := c.httpClient.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.httpClient.Transport)
	}
	if transport.TLSClientConfig == nil || !transport.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("expected InsecureSkipVerify=true when configured")
	}
}

// TestGet_SendsHeaders verifies configured headers and the JSON Accept header
// reach the server.
func TestGet_SendsHeaders(t *testing.T) {
	t.Parallel()

	var gotKey, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey, gotAccept = r.Header.Get("X-Api-Key"), r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{Headers: http.Header{"X-Api-Key": {"secret"}}})
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	resp.Body.Close()

	if gotKey != "secret" || gotAccept != "application/json" {
		t.Fatalf("headers X-Api-Key=%q Accept=%q", gotKey, gotAccept)
	}
}

// TestGet_RetryOn5xxThenSuccess verifies the client retries a 5xx and
// returns the successful response once the server recovers.
func TestGet_RetryOn5xxThenSuccess(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond})
	var waits []time.Duration
	c.wait = noWait(&waits)

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
	if want := []time.Duration{time.Millisecond, 2 * time.Millisecond}; !reflect.DeepEqual(waits, want) {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
}

// TestGet_StopsAfterMaxRetries verifies the client gives up after the
// configured retries and reports the last status.
func TestGet_StopsAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 2})
	var waits []time.Duration
	c.wait = noWait(&waits)

	_, err := c.Get(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v; want StatusError 503", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("attempts = %d, want 3 (1 initial + 2 retries)", got)
	}
	if len(waits) != 2 {
		t.Fatalf("waits = %v, want 2", waits)
	}
}

// TestGet_NonRetryableStatus verifies a 4xx is returned immediately.
func TestGet_NonRetryableStatus(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 5})
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest || atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("status=%d hits=%d; want 400 after 1 attempt", resp.StatusCode, hits)
	}
}

func TestGet_EmptyURLAndCanceledContext(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{})
	if _, err := c.Get(context.Background(), ""); err == nil {
		t.Fatalf("Get(\"\") error = nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Get(ctx, "http://example.invalid"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Get(canceled) err = %v; want context.Canceled", err)
	}
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, 100 * time.Millisecond},
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{70, time.Second},
	}
	for _, tt := range tests {
		if got := backoffDuration(100*time.Millisecond, tt.attempt, time.Second); got != tt.want {
			t.Errorf("backoffDuration(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]bool{
		200: false, 400: false, 404: false,
		429: true, 500: true, 502: true, 599: true,
	} {
		if got := isRetryableStatus(code); got != want {
			t.Errorf("isRetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// TestGet_TransportErrorIsRetried uses a custom transport that fails once.
func TestGet_TransportErrorIsRetried(t *testing.T) {
	t.Parallel()

	var calls int32
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection reset")
		}
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	c := NewClient(Config{MaxRetries: 1, Transport: rt})
	var waits []time.Duration
	c.wait = noWait(&waits)

	resp, err := c.Get(context.Background(), "http://results.example.org/Xmas.json")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	resp.Body.Close()
	if calls != 2 {
		t.Fatalf("transport calls = %d, want 2", calls)
	}
}

func TestWaitContext_Cancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := waitContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("waitContext(canceled) = %v; want context.Canceled", err)
	}
	if err := waitContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("waitContext = %v; want nil", err)
	}
}
