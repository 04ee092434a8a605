package port

import (
	"context"

	"github.com/strogmv/myblog/internal/domain"
)

// SearchIndex is the full-text index over post title and text.
type SearchIndex interface {
	Index(ctx context.Context, post domain.Post)
	Remove(ctx context.Context, postID string)
	// ReindexAll rebuilds the index from every stored post. Query is not
	// trusted until the first rebuild has completed.
	ReindexAll(ctx context.Context) error
	// Query returns matching post IDs ranked by relevance.
	Query(ctx context.Context, keyword string) ([]string, error)
	Ready() bool
}
