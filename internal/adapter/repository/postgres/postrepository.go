package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

const postColumns = "p.id, p.title, p.text, p.image_url, p.video_url, p.created_at, p.updated_at"

type PostRepository struct {
	DB *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{DB: pool}
}

func (r *PostRepository) Save(ctx context.Context, p *domain.Post) error {
	exec := GetExecutor(ctx, r.DB)
	_, err := exec.Exec(ctx, `
		INSERT INTO posts (id, title, text, image_url, video_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, text = EXCLUDED.text, image_url = EXCLUDED.image_url,
		    video_url = EXCLUDED.video_url, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Title, p.Text, p.ImageURL, p.VideoURL, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	exec := GetExecutor(ctx, r.DB)
	return scanPost(exec.QueryRow(ctx, "SELECT "+postColumns+" FROM posts p WHERE p.id = $1", id))
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	exec := GetExecutor(ctx, r.DB)
	tag, err := exec.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (r *PostRepository) ListAll(ctx context.Context, offset, limit int) ([]domain.Post, error) {
	exec := GetExecutor(ctx, r.DB)
	rows, err := exec.Query(ctx,
		"SELECT "+postColumns+" FROM posts p ORDER BY p.created_at, p.id OFFSET $1 LIMIT $2",
		offset, limitArg(limit))
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepository) Count(ctx context.Context) (int64, error) {
	exec := GetExecutor(ctx, r.DB)
	var n int64
	err := exec.QueryRow(ctx, "SELECT count(*) FROM posts").Scan(&n)
	return n, err
}

func (r *PostRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Post, error) {
	if len(ids) == 0 {
		return []domain.Post{}, nil
	}
	exec := GetExecutor(ctx, r.DB)
	rows, err := exec.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN unnest($1::text[]) WITH ORDINALITY AS x(id, ord) ON p.id = x.id
		ORDER BY x.ord`, ids)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepository) LockByID(ctx context.Context, id string) error {
	exec := GetExecutor(ctx, r.DB)
	var got string
	err := exec.QueryRow(ctx, "SELECT id FROM posts WHERE id = $1 FOR UPDATE", id).Scan(&got)
	return notFound(err)
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	defer rows.Close()
	items := []domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Text, &p.ImageURL, &p.VideoURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

var _ port.PostRepository = (*PostRepository)(nil)
