// Package http exposes the blog services over a chi router.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/strogmv/myblog/internal/pkg/circuitbreaker"
	"github.com/strogmv/myblog/internal/pkg/rbac"
	"github.com/strogmv/myblog/internal/pkg/report"
	"github.com/strogmv/myblog/internal/port"
)

const (
	jsonBodyLimit  = 1 << 20
	mediaBodyLimit = 25 << 20
)

// Options tunes the transport. Zero values pick working defaults.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	// LoginLimiter throttles POST /users/login. Nil disables throttling.
	LoginLimiter *RateLimiter
	// StorageBreaker guards media uploads. Nil installs a default breaker.
	StorageBreaker *circuitbreaker.Breaker
}

type Server struct {
	auth    port.Auth
	blog    port.Blog
	search  port.SearchIndex
	reports *report.Generator
	policy  *rbac.Policy
	opts    Options
}

func NewServer(auth port.Auth, blog port.Blog, search port.SearchIndex, reports *report.Generator, opts Options) *Server {
	if opts.StorageBreaker == nil {
		opts.StorageBreaker = circuitbreaker.NewBreaker(5, 30*time.Second, 1)
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{
		auth:    auth,
		blog:    blog,
		search:  search,
		reports: reports,
		policy:  NewPolicy(),
		opts:    opts,
	}
}

// NewPolicy is the route access table. Unlisted routes need a logged-in
// user.
func NewPolicy() *rbac.Policy {
	return rbac.NewPolicy().
		Permit(rbac.Public, http.MethodPost, "/users/login", "/users/logout").
		Permit(rbac.Public, http.MethodGet,
			"/posts", "/posts/{id}", "/posts/{id}/tags", "/posts/tag", "/posts/search",
			"/tags", "/tags/{id}",
		).
		Permit(rbac.Admin, http.MethodGet, "/users", "/admin/reports/tags.pdf").
		Permit(rbac.Admin, http.MethodDelete, "/users/{id}")
}

// Handler builds the full middleware chain and route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Post-ID", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(TimeoutMiddleware(s.opts.RequestTimeout))
		r.Use(s.authenticate)
		r.Use(s.authorize)

		r.Group(func(r chi.Router) {
			r.Use(MaxBodySizeMiddleware(jsonBodyLimit))

			r.Post("/users/register", s.register)
			login := r
			if s.opts.LoginLimiter != nil {
				login = r.With(s.opts.LoginLimiter.Middleware)
			}
			login.Post("/users/login", s.login)
			r.Post("/users/logout", s.logout)
			r.Get("/users/me", s.me)
			r.Get("/users/me/sessions", s.mySessions)
			r.Get("/users", s.listUsers)
			r.Get("/users/{id}", s.getUser)
			r.Delete("/users/{id}", s.deleteUser)

			r.Get("/posts", s.listPosts)
			r.Post("/posts", s.createPost)
			r.Get("/posts/tag", s.postsByTag)
			r.Get("/posts/search", s.searchPosts)
			r.Get("/posts/{id}", s.getPost)
			r.Put("/posts/{id}", s.updatePost)
			r.Delete("/posts/{id}", s.deletePost)
			r.Get("/posts/{id}/tags", s.tagsOfPost)
			r.Post("/posts/{id}/tags", s.addTags)
			r.Delete("/posts/{id}/tags", s.removeTags)

			r.Get("/tags", s.listTags)
			r.Post("/tags", s.createTags)
			r.Get("/tags/{id}", s.getTag)
			r.Put("/tags/{id}", s.renameTag)
			r.Delete("/tags/{id}", s.deleteTag)

			r.Get("/admin/reports/tags.pdf", s.tagReport)
		})

		r.With(
			MaxBodySizeMiddleware(mediaBodyLimit),
			CircuitBreakerMiddleware(s.opts.StorageBreaker, 30*time.Second),
		).Put("/posts/{id}/media/{kind}", s.uploadMedia)
	})

	return otelhttp.NewHandler(r, "myblog",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
