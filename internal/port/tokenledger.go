package port

import (
	"context"

	"github.com/strogmv/myblog/internal/domain"
)

// TokenLedger persists every issued session token and its revocation state.
type TokenLedger interface {
	// Record stores a new live token for userID.
	Record(ctx context.Context, userID, token string) (*domain.Token, error)
	// RevokeAllLive kills every live token of userID and reports how many were live.
	RevokeAllLive(ctx context.Context, userID string) (int, error)
	// Revoke kills the exact token. Unknown tokens return (nil, nil).
	Revoke(ctx context.Context, token string) (*domain.Token, error)
	IsLive(ctx context.Context, token string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Token, error)
}
