package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

type TagRepositoryStub struct {
	mu     sync.RWMutex
	data   map[string]domain.Tag
	byName map[string]string
	order  []string
}

func NewTagRepositoryStub() *TagRepositoryStub {
	return &TagRepositoryStub{
		data:   make(map[string]domain.Tag),
		byName: make(map[string]string),
	}
}

func (r *TagRepositoryStub) Save(ctx context.Context, entity *domain.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity == nil || entity.ID == "" {
		return fmt.Errorf("entity with id is required")
	}
	if owner, ok := r.byName[entity.Name]; ok && owner != entity.ID {
		return fmt.Errorf("tag name %q: %w", entity.Name, port.ErrConflict)
	}
	if prev, ok := r.data[entity.ID]; ok {
		delete(r.byName, prev.Name)
	} else {
		r.order = append(r.order, entity.ID)
	}
	r.data[entity.ID] = *entity
	r.byName[entity.Name] = entity.ID
	return nil
}

func (r *TagRepositoryStub) FindByID(ctx context.Context, id string) (*domain.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("tag %s: %w", id, port.ErrNotFound)
	}
	return &entity, nil
}

func (r *TagRepositoryStub) FindByName(ctx context.Context, name string) (*domain.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("tag %q: %w", name, port.ErrNotFound)
	}
	entity := r.data[id]
	return &entity, nil
}

func (r *TagRepositoryStub) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity, ok := r.data[id]
	if !ok {
		return nil
	}
	delete(r.byName, entity.Name)
	delete(r.data, id)
	r.order = removeString(r.order, id)
	return nil
}

func (r *TagRepositoryStub) ListAll(ctx context.Context, offset, limit int) ([]domain.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.Tag, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, r.data[id])
	}
	return paginate(items, offset, limit), nil
}

func (r *TagRepositoryStub) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.data)), nil
}

func (r *TagRepositoryStub) ListByIDs(ctx context.Context, ids []string) ([]domain.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]domain.Tag, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.data[id]; ok {
			res = append(res, item)
		}
	}
	return res, nil
}

var _ port.TagRepository = (*TagRepositoryStub)(nil)
