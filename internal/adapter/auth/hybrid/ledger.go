// Package authhybrid serves token liveness from Redis in front of an
// authoritative ledger. Cache failures only cost a database round trip.
package authhybrid

import (
	"context"
	"log/slog"

	authredis "github.com/strogmv/myblog/internal/adapter/auth/redis"
	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/pkg/circuitbreaker"
	"github.com/strogmv/myblog/internal/pkg/logger"
	"github.com/strogmv/myblog/internal/port"
)

// Authority is the ledger of record. Bulk revocation reports the killed
// values so they can be marked dead in the cache.
type Authority interface {
	port.TokenLedger
	RevokeAllLiveTokens(ctx context.Context, userID string) ([]string, error)
}

type Ledger struct {
	authority Authority
	cache     *authredis.Cache
	breaker   *circuitbreaker.Breaker
}

func NewLedger(authority Authority, cache *authredis.Cache, breaker *circuitbreaker.Breaker) *Ledger {
	return &Ledger{authority: authority, cache: cache, breaker: breaker}
}

// Record only touches the authority; a new token is cached on its first
// successful lookup.
func (l *Ledger) Record(ctx context.Context, userID, token string) (*domain.Token, error) {
	return l.authority.Record(ctx, userID, token)
}

// RevokeAllLive marks the killed tokens dead before the surrounding
// transaction commits. A rollback can leave a live row behind a dead
// marker, which only ever rejects more.
func (l *Ledger) RevokeAllLive(ctx context.Context, userID string) (int, error) {
	killed, err := l.authority.RevokeAllLiveTokens(ctx, userID)
	if err != nil {
		return 0, err
	}
	l.markDead(ctx, killed...)
	return len(killed), nil
}

func (l *Ledger) Revoke(ctx context.Context, token string) (*domain.Token, error) {
	rec, err := l.authority.Revoke(ctx, token)
	if err != nil || rec == nil {
		return rec, err
	}
	l.markDead(ctx, token)
	return rec, nil
}

func (l *Ledger) IsLive(ctx context.Context, token string) (bool, error) {
	var state authredis.State
	err := l.breaker.Do(func() error {
		var err error
		state, err = l.cache.Lookup(ctx, token)
		return err
	})
	if err == nil {
		switch state {
		case authredis.Dead:
			return false, nil
		case authredis.Live:
			return true, nil
		}
	}

	live, err := l.authority.IsLive(ctx, token)
	if err != nil || !live {
		return live, err
	}
	if err := l.breaker.Do(func() error { return l.cache.MarkLive(ctx, token) }); err != nil {
		logger.From(ctx).Debug("token cache fill skipped", slog.Any("error", err))
	}
	return true, nil
}

func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]domain.Token, error) {
	return l.authority.ListByUser(ctx, userID)
}

func (l *Ledger) markDead(ctx context.Context, tokens ...string) {
	if len(tokens) == 0 {
		return
	}
	if err := l.breaker.Do(func() error { return l.cache.MarkDead(ctx, tokens...) }); err != nil {
		logger.From(ctx).Warn("token cache revoke failed",
			slog.Int("tokens", len(tokens)),
			slog.String("breaker", l.breaker.State().String()),
			slog.Any("error", err),
		)
	}
}

var _ port.TokenLedger = (*Ledger)(nil)
