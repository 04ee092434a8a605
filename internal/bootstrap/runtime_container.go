// Package bootstrap picks and connects the infrastructure adapters named
// by the configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	authhybrid "github.com/strogmv/myblog/internal/adapter/auth/hybrid"
	authstore "github.com/strogmv/myblog/internal/adapter/auth/memory"
	authpg "github.com/strogmv/myblog/internal/adapter/auth/postgres"
	authredis "github.com/strogmv/myblog/internal/adapter/auth/redis"
	"github.com/strogmv/myblog/internal/adapter/cache/redis"
	"github.com/strogmv/myblog/internal/adapter/events/nats"
	"github.com/strogmv/myblog/internal/adapter/events/noop"
	"github.com/strogmv/myblog/internal/adapter/repository/memory"
	"github.com/strogmv/myblog/internal/adapter/repository/postgres"
	storagemem "github.com/strogmv/myblog/internal/adapter/storage/memory"
	"github.com/strogmv/myblog/internal/adapter/storage/s3"
	"github.com/strogmv/myblog/internal/config"
	"github.com/strogmv/myblog/internal/pkg/circuitbreaker"
	"github.com/strogmv/myblog/internal/pkg/logger"
	"github.com/strogmv/myblog/internal/port"
)

// RuntimeContainer holds the adapters behind every port the services use.
type RuntimeContainer struct {
	RepoUser    port.UserRepository
	RepoPost    port.PostRepository
	RepoTag     port.TagRepository
	RepoPostTag port.PostTagRepository
	TxManager   port.TxManager
	Ledger      port.TokenLedger
	Publisher   port.Publisher
	Storage     port.FileStorage

	// Redis is nil unless REDIS_ADDR is set.
	Redis *goredis.Client

	closers []func()
}

func NewRuntimeContainer(ctx context.Context, cfg *config.Config) (_ *RuntimeContainer, err error) {
	c := &RuntimeContainer{}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()
	log := logger.From(ctx)

	var authority authhybrid.Authority
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, pool.Close)
		if err := postgres.Migrate(pool); err != nil {
			return nil, err
		}
		c.usePostgres(pool)
		authority = authpg.NewStore(pool)
		log.Info("storage ready", slog.String("backend", "postgres"))
	default:
		c.RepoUser = memory.NewUserRepositoryStub()
		c.RepoPost = memory.NewPostRepositoryStub()
		c.RepoTag = memory.NewTagRepositoryStub()
		c.RepoPostTag = memory.NewPostTagRepositoryStub()
		c.TxManager = memory.NewTxManager()
		authority = authstore.NewMemoryStore()
		log.Warn("storage ready", slog.String("backend", "memory"))
	}
	c.Ledger = authority

	if cfg.RedisAddr != "" {
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("redis unavailable, serving token lookups from the ledger until it recovers", slog.Any("error", err))
		}
		c.Redis = client
		c.closers = append(c.closers, func() { _ = client.Close() })
		cache := authredis.NewCache(client, cfg.TokenCacheTTL, cfg.JWTTTL)
		c.Ledger = authhybrid.NewLedger(authority, cache, circuitbreaker.NewBreaker(5, 10*time.Second, 1))
	}

	if cfg.NATSURL != "" {
		nc, err := nats.NewClient(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, nc.Close)
		c.Publisher = nc
	} else {
		c.Publisher = noop.Publisher{}
	}

	if cfg.S3Bucket != "" {
		store, err := s3.New(ctx, s3.Options{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		c.Storage = store
	} else {
		c.Storage = storagemem.NewStore(cfg.MediaBaseURL)
	}

	return c, nil
}

func (c *RuntimeContainer) usePostgres(pool *pgxpool.Pool) {
	c.RepoUser = postgres.NewUserRepository(pool)
	c.RepoPost = postgres.NewPostRepository(pool)
	c.RepoTag = postgres.NewTagRepository(pool)
	c.RepoPostTag = postgres.NewPostTagRepository(pool)
	c.TxManager = postgres.NewTxManager(pool)
}

// Close releases connections in reverse order of creation.
func (c *RuntimeContainer) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
