package port

//go:generate go run go.uber.org/mock/mockgen@latest -source=$GOFILE -destination=mocks/mock_$GOFILE -package=mocks

import (
	"context"

	"github.com/strogmv/myblog/internal/domain"
)

// PostRepository defines storage operations for Post
type PostRepository interface {
	Save(ctx context.Context, entity *domain.Post) error
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context, offset, limit int) ([]domain.Post, error)
	Count(ctx context.Context) (int64, error)
	// ListByIDs returns the posts that exist, in the order of ids.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Post, error)
	LockByID(ctx context.Context, id string) error
}
