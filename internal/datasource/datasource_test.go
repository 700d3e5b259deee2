package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddslab/internal/metrics"
)

func testClientConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 2 * time.Millisecond
	return cfg
}

func TestRateLimitedClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewRateLimitedHTTPClient(testClientConfig(), nil)
	defer client.Close()

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitedClientRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.MaxRetries = 5
	client := NewRateLimitedHTTPClient(cfg, nil)
	defer client.Close()

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestRateLimitedClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.MaxRetries = 5
	client := NewRateLimitedHTTPClient(cfg, nil)
	defer client.Close()

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestRequestsAreInstrumented(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewRateLimitedHTTPClient(testClientConfig(), nil)
	defer client.Close()

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("200"))

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("200"))
	assert.Equal(t, before+1, after)
}

func TestFailedRequestsAreInstrumented(t *testing.T) {
	cfg := testClientConfig()
	cfg.Timeout = 50 * time.Millisecond
	client := NewRateLimitedHTTPClient(cfg, nil)
	defer client.Close()

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("error"))

	_, err := client.Get(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)

	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("error"))
	assert.Equal(t, before+1, after)
}

func TestCircuitBreakerOpensAndResets(t *testing.T) {
	cfg := testClientConfig()
	cfg.CircuitBreakerMax = 2
	cfg.Timeout = 50 * time.Millisecond
	client := NewRateLimitedHTTPClient(cfg, nil)
	defer client.Close()

	// Closed port: every request fails at the transport level.
	deadURL := "http://127.0.0.1:1"

	for i := 0; i < cfg.CircuitBreakerMax; i++ {
		_, err := client.Get(context.Background(), deadURL)
		require.Error(t, err)
	}

	_, err := client.Get(context.Background(), deadURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	client.Reset()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestRateLimitedClientHonorsContext(t *testing.T) {
	cfg := testClientConfig()
	cfg.RateLimit = 0.001 // forces a long limiter wait
	client := NewRateLimitedHTTPClient(cfg, nil)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// First request consumes the initial token; the second blocks on the
	// limiter until the context expires.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := client.Get(ctx, srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = client.Get(ctx, srv.URL)
	assert.Error(t, err)
}

func TestProviderError(t *testing.T) {
	base := errors.New("boom")
	err := NewProviderError("the-odds-api", ErrCodeServerError, "upstream 500", base)

	assert.Contains(t, err.Error(), "the-odds-api")
	assert.Contains(t, err.Error(), ErrCodeServerError)
	assert.True(t, errors.Is(err, base))

	bare := NewProviderError("the-odds-api", ErrCodeNotFound, "no event", nil)
	assert.NotContains(t, bare.Error(), "(")
}
