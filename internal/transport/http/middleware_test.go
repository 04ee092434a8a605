package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/myblog/internal/pkg/circuitbreaker"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"BEARER abc", "abc"},
		{"Basic abc", ""},
		{"Bearer ", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, bearerToken(r), "header %q", tt.header)
	}
}

func TestRateLimiterSharesRedisCounters(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	// Two replicas of the same limiter see one counter.
	a := NewRateLimiter("login", 3, time.Minute, client)
	b := NewRateLimiter("login", 3, time.Minute, client)
	assert.True(t, a.Allow(ctx, "10.0.0.1"))
	assert.True(t, b.Allow(ctx, "10.0.0.1"))
	assert.True(t, a.Allow(ctx, "10.0.0.1"))
	assert.False(t, b.Allow(ctx, "10.0.0.1"))
	assert.True(t, a.Allow(ctx, "10.0.0.2"), "keys are per client")

	assert.Equal(t, time.Minute, mr.TTL("rate:login:10.0.0.1"))
	mr.FastForward(time.Minute)
	assert.True(t, a.Allow(ctx, "10.0.0.1"), "window expired")
}

func TestRateLimiterFallsBackToLocalCounters(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	l := NewRateLimiter("login", 1, time.Minute, client)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "ip"))
	assert.False(t, l.Allow(ctx, "ip"))
	now = now.Add(time.Minute)
	assert.True(t, l.Allow(ctx, "ip"))
}

func TestRateLimiterDisabled(t *testing.T) {
	l := NewRateLimiter("login", 0, time.Minute, nil)
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow(context.Background(), "ip"))
	}
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	breaker := circuitbreaker.NewBreaker(2, time.Hour, 1)
	status := http.StatusBadGateway
	h := CircuitBreakerMiddleware(breaker, 30*time.Second)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))

	serve := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/posts/1/media/image", nil))
		return rec
	}

	assert.Equal(t, http.StatusBadGateway, serve().Code)
	assert.Equal(t, http.StatusBadGateway, serve().Code)
	require.Equal(t, circuitbreaker.Open, breaker.State())

	status = http.StatusOK
	rec := serve()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestMaxBodySizeMiddleware(t *testing.T) {
	h := MaxBodySizeMiddleware(4)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTimeoutMiddleware(t *testing.T) {
	slow := TimeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rec := httptest.NewRecorder()
	slow.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"type":"about:blank","title":"Service Unavailable","status":503,"detail":"Request timed out","code":"TIMEOUT"}`, rec.Body.String())

	fast := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec = httptest.NewRecorder()
	fast.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/posts/1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Type"))
}
