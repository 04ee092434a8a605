package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

type TagRepository struct {
	DB *pgxpool.Pool
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{DB: pool}
}

// Save relies on the unique index on name; a clash surfaces as
// port.ErrConflict even when two requests race past the service check.
func (r *TagRepository) Save(ctx context.Context, t *domain.Tag) error {
	exec := GetExecutor(ctx, r.DB)
	_, err := exec.Exec(ctx, `
		INSERT INTO tags (id, name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		t.ID, t.Name, t.CreatedAt)
	return conflict(err)
}

func (r *TagRepository) FindByID(ctx context.Context, id string) (*domain.Tag, error) {
	exec := GetExecutor(ctx, r.DB)
	return scanTag(exec.QueryRow(ctx, "SELECT id, name, created_at FROM tags WHERE id = $1", id))
}

func (r *TagRepository) FindByName(ctx context.Context, name string) (*domain.Tag, error) {
	exec := GetExecutor(ctx, r.DB)
	return scanTag(exec.QueryRow(ctx, "SELECT id, name, created_at FROM tags WHERE name = $1", name))
}

func (r *TagRepository) Delete(ctx context.Context, id string) error {
	exec := GetExecutor(ctx, r.DB)
	tag, err := exec.Exec(ctx, "DELETE FROM tags WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (r *TagRepository) ListAll(ctx context.Context, offset, limit int) ([]domain.Tag, error) {
	exec := GetExecutor(ctx, r.DB)
	rows, err := exec.Query(ctx,
		"SELECT id, name, created_at FROM tags ORDER BY created_at, id OFFSET $1 LIMIT $2",
		offset, limitArg(limit))
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

func (r *TagRepository) Count(ctx context.Context) (int64, error) {
	exec := GetExecutor(ctx, r.DB)
	var n int64
	err := exec.QueryRow(ctx, "SELECT count(*) FROM tags").Scan(&n)
	return n, err
}

func (r *TagRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Tag, error) {
	if len(ids) == 0 {
		return []domain.Tag{}, nil
	}
	exec := GetExecutor(ctx, r.DB)
	rows, err := exec.Query(ctx, `
		SELECT t.id, t.name, t.created_at
		FROM tags t
		JOIN unnest($1::text[]) WITH ORDINALITY AS x(id, ord) ON t.id = x.id
		ORDER BY x.ord`, ids)
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

func collectTags(rows pgx.Rows) ([]domain.Tag, error) {
	defer rows.Close()
	items := []domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

func scanTag(row pgx.Row) (*domain.Tag, error) {
	var t domain.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

var _ port.TagRepository = (*TagRepository)(nil)
