package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/pkg/logger"
	"github.com/strogmv/myblog/internal/pkg/search"
	"github.com/strogmv/myblog/internal/port"
)

const (
	titleWeight  = 2
	textWeight   = 1
	reindexBatch = 500
)

// SearchImpl keeps a BM25 index over post title and text.
type SearchImpl struct {
	PostRepo port.PostRepository
	index    atomic.Pointer[search.Index]
	ready    atomic.Bool
}

func NewSearchImpl(postRepo port.PostRepository) *SearchImpl {
	s := &SearchImpl{PostRepo: postRepo}
	s.index.Store(search.New(nil))
	return s
}

func (s *SearchImpl) Index(ctx context.Context, post domain.Post) {
	s.index.Load().Put(document(post))
}

func (s *SearchImpl) Remove(ctx context.Context, postID string) {
	s.index.Load().Delete(postID)
}

// ReindexAll rebuilds the index from storage and swaps it in. It must
// finish before the HTTP listener starts; writes that race with it are
// not carried over.
func (s *SearchImpl) ReindexAll(ctx context.Context) error {
	start := time.Now()
	var docs []search.Document
	for offset := 0; ; offset += reindexBatch {
		posts, err := s.PostRepo.ListAll(ctx, offset, reindexBatch)
		if err != nil {
			return fmt.Errorf("reindex: list posts: %w", err)
		}
		for _, p := range posts {
			docs = append(docs, document(p))
		}
		if len(posts) < reindexBatch {
			break
		}
	}
	s.index.Store(search.New(docs))
	s.ready.Store(true)

	logger.From(ctx).Info("search index rebuilt",
		slog.Int("documents", len(docs)),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

// Query returns post IDs ranked by relevance. Any shared token between
// the keyword and the title or text is a hit.
func (s *SearchImpl) Query(ctx context.Context, keyword string) ([]string, error) {
	if !s.ready.Load() {
		return nil, ErrSearchNotReady
	}
	hits := s.index.Load().Search(keyword, 0)
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.Name)
	}
	return ids, nil
}

func (s *SearchImpl) Ready() bool {
	return s.ready.Load()
}

func document(p domain.Post) search.Document {
	return search.Document{
		Name: p.ID,
		Fields: []search.Field{
			{Text: p.Title, Weight: titleWeight},
			{Text: p.Text, Weight: textWeight},
		},
	}
}

var _ port.SearchIndex = (*SearchImpl)(nil)
