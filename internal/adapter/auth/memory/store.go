package authstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

// MemoryStore is a TokenLedger kept in process memory. Rows are never
// removed.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]*domain.Token
	byUser map[string][]string
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]*domain.Token),
		byUser: make(map[string][]string),
		now:    time.Now,
	}
}

func (s *MemoryStore) Record(ctx context.Context, userID, token string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token]; ok {
		return nil, fmt.Errorf("token already recorded: %w", port.ErrConflict)
	}
	rec := &domain.Token{
		ID:        uuid.NewString(),
		Value:     token,
		UserID:    userID,
		Type:      domain.TokenTypeBearer,
		CreatedAt: s.now(),
	}
	s.tokens[token] = rec
	s.byUser[userID] = append(s.byUser[userID], token)
	out := *rec
	return &out, nil
}

func (s *MemoryStore) RevokeAllLive(ctx context.Context, userID string) (int, error) {
	killed, err := s.RevokeAllLiveTokens(ctx, userID)
	return len(killed), err
}

// RevokeAllLiveTokens is RevokeAllLive returning the killed token values.
func (s *MemoryStore) RevokeAllLiveTokens(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var killed []string
	for _, tok := range s.byUser[userID] {
		rec := s.tokens[tok]
		if rec.IsLive() {
			rec.Kill()
			killed = append(killed, tok)
		}
	}
	return killed, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, token string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	rec.Kill()
	out := *rec
	return &out, nil
}

func (s *MemoryStore) IsLive(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[token]
	return ok && rec.IsLive(), nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Token, 0, len(s.byUser[userID]))
	for _, tok := range s.byUser[userID] {
		out = append(out, *s.tokens[tok])
	}
	return out, nil
}

var _ port.TokenLedger = (*MemoryStore)(nil)
