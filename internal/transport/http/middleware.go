package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/strogmv/myblog/internal/pkg/circuitbreaker"
	"github.com/strogmv/myblog/internal/pkg/errors"
	"github.com/strogmv/myblog/internal/pkg/logger"
	"github.com/strogmv/myblog/internal/pkg/rbac"
	"github.com/strogmv/myblog/internal/port"
)

var (
	ErrAuthRequired = errors.Unauthorized("AUTHENTICATION_REQUIRED", "A valid bearer token is required")
	ErrForbidden    = errors.Forbidden("Insufficient role")
	ErrRateLimited  = errors.New(http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded").WithCode("RATE_LIMITED")
)

type principalKey struct{}

type authFailureKey struct{}

// PrincipalFrom returns the caller authenticated for this request, or nil.
func PrincipalFrom(ctx context.Context) *port.Principal {
	p, _ := ctx.Value(principalKey{}).(*port.Principal)
	return p
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
// Anything else yields "".
func bearerToken(r *http.Request) string {
	const prefix = "bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// authenticate resolves the bearer token into a principal. A missing or
// rejected token leaves the request anonymous; the rejection is kept so
// protected routes can report it.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		p, err := s.auth.Authenticate(ctx, token)
		if err != nil {
			logger.From(ctx).Debug("bearer token rejected",
				slog.String("token", logger.TokenPrefix(token)),
				slog.Any("error", err),
			)
			ctx = context.WithValue(ctx, authFailureKey{}, err)
		} else {
			ctx = context.WithValue(ctx, principalKey{}, p)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize enforces the route policy. It must run after routing so the
// route pattern is known.
func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFrom(r.Context())
		sub := rbac.Subject{Authenticated: p != nil}
		if p != nil {
			sub.Role = string(p.Role)
		}

		switch s.policy.Check(r.Method, routePattern(r), sub) {
		case rbac.DenyAnonymous:
			if err, ok := r.Context().Value(authFailureKey{}).(error); ok {
				errors.WriteError(w, r, err)
				return
			}
			errors.WriteError(w, r, ErrAuthRequired)
			return
		case rbac.DenyRole:
			errors.WriteError(w, r, ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("route", routePattern(r)),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		}
		if p := PrincipalFrom(r.Context()); p != nil {
			attrs = append(attrs, slog.String("user", p.Username))
		}
		logger.From(r.Context()).LogAttrs(r.Context(), level, "http request", attrs...)
	})
}

type rateState struct {
	windowStart time.Time
	count       int
}

// RateLimiter counts requests per client IP in fixed windows. Counters
// live in Redis when a client is configured so every replica shares them;
// if Redis fails the limiter falls back to process-local counters.
type RateLimiter struct {
	name   string
	limit  int
	window time.Duration
	client redis.UniversalClient

	mu    sync.Mutex
	local map[string]*rateState
	now   func() time.Time
}

// NewRateLimiter allows limit requests per window. A non-positive limit
// disables the limiter. client may be nil.
func NewRateLimiter(name string, limit int, window time.Duration, client redis.UniversalClient) *RateLimiter {
	return &RateLimiter{
		name:   name,
		limit:  limit,
		window: window,
		client: client,
		local:  make(map[string]*rateState),
		now:    time.Now,
	}
}

// Allow counts one hit for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l.limit <= 0 {
		return true
	}
	if l.client != nil {
		redisKey := "rate:" + l.name + ":" + key
		count, err := l.client.Incr(ctx, redisKey).Result()
		if err == nil {
			if count == 1 {
				if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
					logger.From(ctx).Warn("rate limit expire failed", slog.String("key", redisKey), slog.Any("error", err))
				}
			}
			if int(count) > l.limit {
				rateLimited.WithLabelValues(l.name, "redis").Inc()
				return false
			}
			return true
		}
		logger.From(ctx).Warn("rate limit falling back to local counters", slog.Any("error", err))
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	state, ok := l.local[key]
	if !ok {
		state = &rateState{windowStart: now}
		l.local[key] = state
	}
	if now.Sub(state.windowStart) >= l.window {
		state.windowStart = now
		state.count = 0
	}
	state.count++
	if state.count > l.limit {
		rateLimited.WithLabelValues(l.name, "local").Inc()
		return false
	}
	return true
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.Context(), clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			errors.WriteError(w, r, ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// TimeoutMiddleware bounds handler run time with http.TimeoutHandler.
func TimeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = 30 * time.Second
	}
	return func(next http.Handler) http.Handler {
		h := http.TimeoutHandler(next, d, `{"type":"about:blank","title":"Service Unavailable","status":503,"detail":"Request timed out","code":"TIMEOUT"}`)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(&problemTypeWriter{ResponseWriter: w}, r)
		})
	}
}

// problemTypeWriter labels the bare timeout body written by
// http.TimeoutHandler as problem+json.
type problemTypeWriter struct {
	http.ResponseWriter
}

func (w *problemTypeWriter) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/problem+json")
	}
	w.ResponseWriter.WriteHeader(code)
}

func MaxBodySizeMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				errors.WriteError(w, r, errors.New(http.StatusRequestEntityTooLarge, "Payload Too Large", fmt.Sprintf("Request body too large (max %d bytes)", limit)).WithCode("BODY_TOO_LARGE"))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// CircuitBreakerMiddleware sheds requests while breaker is open. Any 5xx
// from next counts as a failure.
func CircuitBreakerMiddleware(breaker *circuitbreaker.Breaker, retryAfter time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !breaker.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				errors.WriteError(w, r, errors.New(http.StatusServiceUnavailable, "Service Unavailable", "Circuit breaker is open").WithCode("CIRCUIT_OPEN"))
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if ww.Status() >= http.StatusInternalServerError {
				breaker.RecordFailure()
			} else {
				breaker.RecordSuccess()
			}
		})
	}
}
