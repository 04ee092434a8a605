package port

//go:generate go run go.uber.org/mock/mockgen@latest -source=$GOFILE -destination=mocks/mock_$GOFILE -package=mocks

import (
	"context"
)

// PostTagRepository owns the post/tag join table.
type PostTagRepository interface {
	// Add links every tag to the post. Existing links are left untouched.
	Add(ctx context.Context, postID string, tagIDs []string) error
	Remove(ctx context.Context, postID string, tagIDs []string) (int64, error)
	Exists(ctx context.Context, postID, tagID string) (bool, error)

	TagIDsByPost(ctx context.Context, postID string) ([]string, error)
	PostIDsByTag(ctx context.Context, tagID string, offset, limit int) ([]string, error)
	CountByTag(ctx context.Context, tagID string) (int64, error)

	DeleteByPost(ctx context.Context, postID string) (int64, error)
	DeleteByTag(ctx context.Context, tagID string) (int64, error)
}
