package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

const userColumns = "id, username, password_hash, display_name, role, created_at"

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: pool}
}

func (r *UserRepository) Save(ctx context.Context, u *domain.User) error {
	exec := GetExecutor(ctx, r.DB)
	_, err := exec.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, password_hash = EXCLUDED.password_hash,
		    display_name = EXCLUDED.display_name, role = EXCLUDED.role`,
		u.ID, u.Username, u.PasswordHash, u.DisplayName, string(u.Role), u.CreatedAt)
	return conflict(err)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.DB)
	return scanUser(exec.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.DB)
	return scanUser(exec.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username))
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	exec := GetExecutor(ctx, r.DB)
	tag, err := exec.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ListAll(ctx context.Context, offset, limit int) ([]domain.User, error) {
	exec := GetExecutor(ctx, r.DB)
	rows, err := exec.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2",
		offset, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *u)
	}
	return items, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	exec := GetExecutor(ctx, r.DB)
	var n int64
	err := exec.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&n)
	return n, err
}

func (r *UserRepository) LockByID(ctx context.Context, id string) error {
	exec := GetExecutor(ctx, r.DB)
	var got string
	err := exec.QueryRow(ctx, "SELECT id FROM users WHERE id = $1 FOR UPDATE", id).Scan(&got)
	return notFound(err)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &role, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
