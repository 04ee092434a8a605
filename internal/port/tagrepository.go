package port

//go:generate go run go.uber.org/mock/mockgen@latest -source=$GOFILE -destination=mocks/mock_$GOFILE -package=mocks
import (
	"context"

	"github.com/strogmv/myblog/internal/domain"
)

// TagRepository defines storage operations for the tag catalogue
type TagRepository interface {
	// Save inserts or updates. Returns ErrConflict when the name belongs to another tag.
	Save(ctx context.Context, entity *domain.Tag) error
	FindByID(ctx context.Context, id string) (*domain.Tag, error)
	FindByName(ctx context.Context, name string) (*domain.Tag, error)
	Delete(ctx context.Context, id string) error
	// ListAll orders by creation. A limit of zero or less means no limit.
	ListAll(ctx context.Context, offset, limit int) ([]domain.Tag, error)
	Count(ctx context.Context) (int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Tag, error)
}
