package service

import (
	"context"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

// The mocks delegate to an embedded implementation unless a Func field
// overrides the call.

type TokenLedgerMock struct {
	port.TokenLedger
	RecordFunc        func(ctx context.Context, userID, token string) (*domain.Token, error)
	RevokeAllLiveFunc func(ctx context.Context, userID string) (int, error)
	RevokeFunc        func(ctx context.Context, token string) (*domain.Token, error)
	IsLiveFunc        func(ctx context.Context, token string) (bool, error)
}

func (m *TokenLedgerMock) Record(ctx context.Context, userID, token string) (*domain.Token, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, userID, token)
	}
	return m.TokenLedger.Record(ctx, userID, token)
}

func (m *TokenLedgerMock) RevokeAllLive(ctx context.Context, userID string) (int, error) {
	if m.RevokeAllLiveFunc != nil {
		return m.RevokeAllLiveFunc(ctx, userID)
	}
	return m.TokenLedger.RevokeAllLive(ctx, userID)
}

func (m *TokenLedgerMock) Revoke(ctx context.Context, token string) (*domain.Token, error) {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, token)
	}
	return m.TokenLedger.Revoke(ctx, token)
}

func (m *TokenLedgerMock) IsLive(ctx context.Context, token string) (bool, error) {
	if m.IsLiveFunc != nil {
		return m.IsLiveFunc(ctx, token)
	}
	return m.TokenLedger.IsLive(ctx, token)
}

type PostTagRepositoryMock struct {
	port.PostTagRepository
	AddFunc    func(ctx context.Context, postID string, tagIDs []string) error
	RemoveFunc func(ctx context.Context, postID string, tagIDs []string) (int64, error)
}

func (m *PostTagRepositoryMock) Add(ctx context.Context, postID string, tagIDs []string) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, postID, tagIDs)
	}
	return m.PostTagRepository.Add(ctx, postID, tagIDs)
}

func (m *PostTagRepositoryMock) Remove(ctx context.Context, postID string, tagIDs []string) (int64, error) {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, postID, tagIDs)
	}
	return m.PostTagRepository.Remove(ctx, postID, tagIDs)
}

type FileStorageMock struct {
	port.FileStorage
	GetURLFunc func(ctx context.Context, key string) (string, error)
	deleted    []string
}

func (m *FileStorageMock) GetURL(ctx context.Context, key string) (string, error) {
	if m.GetURLFunc != nil {
		return m.GetURLFunc(ctx, key)
	}
	return m.FileStorage.GetURL(ctx, key)
}

func (m *FileStorageMock) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return m.FileStorage.Delete(ctx, key)
}
