// Package authpg keeps the token ledger in Postgres. Rows are never
// deleted; revocation flips both state flags.
package authpg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strogmv/myblog/internal/adapter/repository/postgres"
	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

const tokenColumns = "id, token, user_id, token_type, expired, revoked, created_at"

type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Record(ctx context.Context, userID, token string) (*domain.Token, error) {
	rec := &domain.Token{
		ID:        uuid.NewString(),
		Value:     token,
		UserID:    userID,
		Type:      domain.TokenTypeBearer,
		CreatedAt: s.now(),
	}
	exec := postgres.GetExecutor(ctx, s.db)
	_, err := exec.Exec(ctx,
		"INSERT INTO tokens ("+tokenColumns+") VALUES ($1, $2, $3, $4, false, false, $5)",
		rec.ID, rec.Value, rec.UserID, string(rec.Type), rec.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return nil, fmt.Errorf("token already recorded: %w", port.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) RevokeAllLive(ctx context.Context, userID string) (int, error) {
	tokens, err := s.RevokeAllLiveTokens(ctx, userID)
	return len(tokens), err
}

// RevokeAllLiveTokens kills every live token of userID and returns their
// values, so caches in front of the ledger can drop them.
func (s *Store) RevokeAllLiveTokens(ctx context.Context, userID string) ([]string, error) {
	exec := postgres.GetExecutor(ctx, s.db)
	rows, err := exec.Query(ctx, `
		UPDATE tokens SET expired = true, revoked = true
		WHERE user_id = $1 AND NOT expired AND NOT revoked
		RETURNING token`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) Revoke(ctx context.Context, token string) (*domain.Token, error) {
	exec := postgres.GetExecutor(ctx, s.db)
	rec, err := scanToken(exec.QueryRow(ctx,
		"UPDATE tokens SET expired = true, revoked = true WHERE token = $1 RETURNING "+tokenColumns,
		token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (s *Store) IsLive(ctx context.Context, token string) (bool, error) {
	exec := postgres.GetExecutor(ctx, s.db)
	var live bool
	err := exec.QueryRow(ctx,
		"SELECT NOT expired AND NOT revoked FROM tokens WHERE token = $1", token).Scan(&live)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return live, err
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Token, error) {
	exec := postgres.GetExecutor(ctx, s.db)
	rows, err := exec.Query(ctx,
		"SELECT "+tokenColumns+" FROM tokens WHERE user_id = $1 ORDER BY created_at, id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Token{}
	for rows.Next() {
		rec, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanToken(row pgx.Row) (*domain.Token, error) {
	var (
		t   domain.Token
		typ string
	)
	if err := row.Scan(&t.ID, &t.Value, &t.UserID, &typ, &t.Expired, &t.Revoked, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Type = domain.TokenType(typ)
	return &t, nil
}

var _ port.TokenLedger = (*Store)(nil)
