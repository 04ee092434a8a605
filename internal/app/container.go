package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/strogmv/myblog/internal/bootstrap"
	"github.com/strogmv/myblog/internal/config"
	"github.com/strogmv/myblog/internal/pkg/auth"
	"github.com/strogmv/myblog/internal/pkg/logger"
	"github.com/strogmv/myblog/internal/pkg/report"
	"github.com/strogmv/myblog/internal/port"
	"github.com/strogmv/myblog/internal/service"
	transport "github.com/strogmv/myblog/internal/transport/http"
)

type Container struct {
	Config  *config.Config
	Runtime *bootstrap.RuntimeContainer

	SvcAuth   port.Auth
	SvcBlog   port.Blog
	SvcSearch port.SearchIndex

	Handler http.Handler
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	rt, err := bootstrap.NewRuntimeContainer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}
	c, err := newContainer(cfg, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return c, nil
}

func newContainer(cfg *config.Config, rt *bootstrap.RuntimeContainer) (*Container, error) {
	signer, err := auth.NewSignerFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("token signer: %w", err)
	}

	c := &Container{Config: cfg, Runtime: rt}
	search := service.NewSearchImpl(rt.RepoPost)
	c.SvcSearch = search
	c.SvcAuth = service.NewAuthImpl(rt.RepoUser, rt.Ledger, signer, rt.TxManager, rt.Publisher, cfg.BcryptCost)
	c.SvcBlog = service.NewBlogImpl(rt.RepoPost, rt.RepoPostTag, rt.RepoTag, rt.TxManager, rt.Publisher, search, rt.Storage)

	opts := transport.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		LoginLimiter:   transport.NewRateLimiter("login", cfg.LoginRateLimit, time.Minute, nil),
	}
	if rt.Redis != nil {
		opts.LoginLimiter = transport.NewRateLimiter("login", cfg.LoginRateLimit, time.Minute, rt.Redis)
	}
	c.Handler = transport.NewServer(c.SvcAuth, c.SvcBlog, c.SvcSearch, report.NewGenerator(), opts).Handler()
	return c, nil
}

// Start seeds the bootstrap administrator and builds the search index.
// Until the rebuild finishes, /readyz reports not ready and search
// requests are refused.
func (c *Container) Start(ctx context.Context) error {
	if c.Config.AdminUsername != "" {
		err := c.SvcAuth.EnsureAdmin(ctx, port.RegisterRequest{
			Username:    c.Config.AdminUsername,
			Password:    c.Config.AdminPassword,
			DisplayName: c.Config.AdminDisplay,
		})
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	}

	start := time.Now()
	if err := c.SvcSearch.ReindexAll(ctx); err != nil {
		return fmt.Errorf("build search index: %w", err)
	}
	logger.From(ctx).Info("search index ready", slog.Duration("took", time.Since(start)))
	return nil
}

func (c *Container) Close() {
	c.Runtime.Close()
}
