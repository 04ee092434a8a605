package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

type PostRepositoryStub struct {
	mu    sync.RWMutex
	data  map[string]domain.Post
	order []string
}

func NewPostRepositoryStub() *PostRepositoryStub {
	return &PostRepositoryStub{
		data: make(map[string]domain.Post),
	}
}

func (r *PostRepositoryStub) Save(ctx context.Context, entity *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity == nil || entity.ID == "" {
		return fmt.Errorf("entity with id is required")
	}
	if _, ok := r.data[entity.ID]; !ok {
		r.order = append(r.order, entity.ID)
	}
	r.data[entity.ID] = *entity
	return nil
}

func (r *PostRepositoryStub) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, port.ErrNotFound)
	}
	return &entity, nil
}

func (r *PostRepositoryStub) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return nil
	}
	delete(r.data, id)
	r.order = removeString(r.order, id)
	return nil
}

func (r *PostRepositoryStub) ListAll(ctx context.Context, offset, limit int) ([]domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.Post, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, r.data[id])
	}
	return paginate(items, offset, limit), nil
}

func (r *PostRepositoryStub) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.data)), nil
}

func (r *PostRepositoryStub) ListByIDs(ctx context.Context, ids []string) ([]domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.data[id]; ok {
			res = append(res, item)
		}
	}
	return res, nil
}

func (r *PostRepositoryStub) LockByID(ctx context.Context, id string) error {
	_, err := r.FindByID(ctx, id)
	return err
}

var _ port.PostRepository = (*PostRepositoryStub)(nil)
