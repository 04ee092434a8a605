package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strogmv/myblog/internal/port"
)

type PostTagRepository struct {
	DB *pgxpool.Pool
}

func NewPostTagRepository(pool *pgxpool.Pool) *PostTagRepository {
	return &PostTagRepository{DB: pool}
}

func (r *PostTagRepository) Add(ctx context.Context, postID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	exec := GetExecutor(ctx, r.DB)
	_, err := exec.Exec(ctx, `
		INSERT INTO post_tags (post_id, tag_id)
		SELECT $1, x.id FROM unnest($2::text[]) WITH ORDINALITY AS x(id, ord) ORDER BY x.ord
		ON CONFLICT (post_id, tag_id) DO NOTHING`,
		postID, tagIDs)
	return err
}

func (r *PostTagRepository) Remove(ctx context.Context, postID string, tagIDs []string) (int64, error) {
	exec := GetExecutor(ctx, r.DB)
	tag, err := exec.Exec(ctx, "DELETE FROM post_tags WHERE post_id = $1 AND tag_id = ANY($2)", postID, tagIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostTagRepository) Exists(ctx context.Context, postID, tagID string) (bool, error) {
	exec := GetExecutor(ctx, r.DB)
	var ok bool
	err := exec.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM post_tags WHERE post_id = $1 AND tag_id = $2)",
		postID, tagID).Scan(&ok)
	return ok, err
}

func (r *PostTagRepository) TagIDsByPost(ctx context.Context, postID string) ([]string, error) {
	exec := GetExecutor(ctx, r.DB)
	rows, err := exec.Query(ctx, "SELECT tag_id FROM post_tags WHERE post_id = $1 ORDER BY seq", postID)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func (r *PostTagRepository) PostIDsByTag(ctx context.Context, tagID string, offset, limit int) ([]string, error) {
	exec := GetExecutor(ctx, r.DB)
	rows, err := exec.Query(ctx,
		"SELECT post_id FROM post_tags WHERE tag_id = $1 ORDER BY seq OFFSET $2 LIMIT $3",
		tagID, offset, limitArg(limit))
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func (r *PostTagRepository) CountByTag(ctx context.Context, tagID string) (int64, error) {
	exec := GetExecutor(ctx, r.DB)
	var n int64
	err := exec.QueryRow(ctx, "SELECT count(*) FROM post_tags WHERE tag_id = $1", tagID).Scan(&n)
	return n, err
}

func (r *PostTagRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	exec := GetExecutor(ctx, r.DB)
	tag, err := exec.Exec(ctx, "DELETE FROM post_tags WHERE post_id = $1", postID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostTagRepository) DeleteByTag(ctx context.Context, tagID string) (int64, error) {
	exec := GetExecutor(ctx, r.DB)
	tag, err := exec.Exec(ctx, "DELETE FROM post_tags WHERE tag_id = $1", tagID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return ids, nil
}

var _ port.PostTagRepository = (*PostTagRepository)(nil)
