package memory

import (
	"context"
	"sync"

	"github.com/strogmv/myblog/internal/port"
)

// PostTagRepositoryStub keeps the join table as two ordered indexes,
// tags by post and posts by tag, updated together.
type PostTagRepositoryStub struct {
	mu     sync.RWMutex
	byPost map[string][]string
	byTag  map[string][]string
}

func NewPostTagRepositoryStub() *PostTagRepositoryStub {
	return &PostTagRepositoryStub{
		byPost: make(map[string][]string),
		byTag:  make(map[string][]string),
	}
}

func (r *PostTagRepositoryStub) Add(ctx context.Context, postID string, tagIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tagID := range tagIDs {
		if r.linked(postID, tagID) {
			continue
		}
		r.byPost[postID] = append(r.byPost[postID], tagID)
		r.byTag[tagID] = append(r.byTag[tagID], postID)
	}
	return nil
}

func (r *PostTagRepositoryStub) Remove(ctx context.Context, postID string, tagIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for _, tagID := range tagIDs {
		if !r.linked(postID, tagID) {
			continue
		}
		r.unlink(postID, tagID)
		removed++
	}
	return removed, nil
}

func (r *PostTagRepositoryStub) Exists(ctx context.Context, postID, tagID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.linked(postID, tagID), nil
}

func (r *PostTagRepositoryStub) TagIDsByPost(ctx context.Context, postID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.byPost[postID]...), nil
}

func (r *PostTagRepositoryStub) PostIDsByTag(ctx context.Context, tagID string, offset, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := paginate(r.byTag[tagID], offset, limit)
	return append([]string{}, ids...), nil
}

func (r *PostTagRepositoryStub) CountByTag(ctx context.Context, tagID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byTag[tagID])), nil
}

func (r *PostTagRepositoryStub) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tags := append([]string{}, r.byPost[postID]...)
	for _, tagID := range tags {
		r.unlink(postID, tagID)
	}
	return int64(len(tags)), nil
}

func (r *PostTagRepositoryStub) DeleteByTag(ctx context.Context, tagID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts := append([]string{}, r.byTag[tagID]...)
	for _, postID := range posts {
		r.unlink(postID, tagID)
	}
	return int64(len(posts)), nil
}

func (r *PostTagRepositoryStub) linked(postID, tagID string) bool {
	for _, id := range r.byPost[postID] {
		if id == tagID {
			return true
		}
	}
	return false
}

func (r *PostTagRepositoryStub) unlink(postID, tagID string) {
	r.byPost[postID] = removeString(r.byPost[postID], tagID)
	if len(r.byPost[postID]) == 0 {
		delete(r.byPost, postID)
	}
	r.byTag[tagID] = removeString(r.byTag[tagID], postID)
	if len(r.byTag[tagID]) == 0 {
		delete(r.byTag, tagID)
	}
}

var _ port.PostTagRepository = (*PostTagRepositoryStub)(nil)
