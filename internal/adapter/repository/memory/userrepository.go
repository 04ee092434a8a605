// Package memory provides an in-memory implementation of the repository.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

type UserRepositoryStub struct {
	mu    sync.RWMutex
	data  map[string]domain.User
	order []string
}

func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		data: make(map[string]domain.User),
	}
}

func (r *UserRepositoryStub) Save(ctx context.Context, entity *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity == nil || entity.ID == "" {
		return fmt.Errorf("entity with id is required")
	}
	for id, item := range r.data {
		if id != entity.ID && item.Username == entity.Username {
			return fmt.Errorf("username %q: %w", entity.Username, port.ErrConflict)
		}
	}
	if _, ok := r.data[entity.ID]; !ok {
		r.order = append(r.order, entity.ID)
	}
	r.data[entity.ID] = *entity
	return nil
}

func (r *UserRepositoryStub) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, port.ErrNotFound)
	}
	return &entity, nil
}

func (r *UserRepositoryStub) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.data {
		if item.Username == username {
			return &item, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, port.ErrNotFound)
}

func (r *UserRepositoryStub) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return nil
	}
	delete(r.data, id)
	r.order = removeString(r.order, id)
	return nil
}

func (r *UserRepositoryStub) ListAll(ctx context.Context, offset, limit int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, r.data[id])
	}
	return paginate(items, offset, limit), nil
}

func (r *UserRepositoryStub) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.data)), nil
}

// LockByID only checks existence; TxManager already serialises writers.
func (r *UserRepositoryStub) LockByID(ctx context.Context, id string) error {
	_, err := r.FindByID(ctx, id)
	return err
}

var _ port.UserRepository = (*UserRepositoryStub)(nil)
