package port

//go:generate go run go.uber.org/mock/mockgen@latest -source=$GOFILE -destination=mocks/mock_$GOFILE -package=mocks
import (
	"context"

	"github.com/strogmv/myblog/internal/domain"
)

// UserRepository defines storage operations for User
type UserRepository interface {
	// Save inserts or updates. Returns ErrConflict when the username is taken by another user.
	Save(ctx context.Context, entity *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context, offset int, limit int) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	// LockByID takes a row lock for the rest of the surrounding transaction.
	LockByID(ctx context.Context, id string) error
}
