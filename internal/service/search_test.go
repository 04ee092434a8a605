package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

func TestSearchBeforeReindex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, "Hello world")

	assert.False(t, f.search.Ready())
	_, err := f.search.Query(ctx, "hello")
	assert.ErrorIs(t, err, ErrSearchNotReady)
	_, err = f.blog.SearchPosts(ctx, port.SearchRequest{Keyword: "hello"})
	assert.ErrorIs(t, err, ErrSearchNotReady)
}

func TestScenario_SearchWithoutMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, "Hello world")
	require.NoError(t, f.search.ReindexAll(ctx))

	_, err := f.blog.SearchPosts(ctx, port.SearchRequest{Keyword: "nonexistent-keyword"})
	assert.ErrorIs(t, err, ErrNoMatchFound)

	_, err = f.blog.SearchPosts(ctx, port.SearchRequest{Keyword: "  "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSearchMatchesTitleOrText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Stored before the rebuild, so only ReindexAll can find it.
	require.NoError(t, f.posts.Save(ctx, &domain.Post{ID: "legacy", Title: "Archive", Text: "kubernetes notes"}))
	require.NoError(t, f.search.ReindexAll(ctx))
	require.True(t, f.search.Ready())

	inTitle := f.post(t, "Kubernetes in production")
	other := f.post(t, "Gardening")

	page, err := f.blog.SearchPosts(ctx, port.SearchRequest{Keyword: "kubernetes"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Content, 2)
	assert.Equal(t, inTitle.ID, page.Content[0].ID, "title hits weigh more")
	assert.Equal(t, "legacy", page.Content[1].ID)

	_, err = f.blog.UpdatePost(ctx, other.ID, port.PostRequest{Title: "Gardening", Text: "kubernetes for tomatoes"})
	require.NoError(t, err)
	page, err = f.blog.SearchPosts(ctx, port.SearchRequest{Keyword: "kubernetes"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	require.NoError(t, f.blog.DeletePost(ctx, inTitle.ID))
	ids, err := f.search.Query(ctx, "kubernetes")
	require.NoError(t, err)
	assert.NotContains(t, ids, inTitle.ID)
}

func TestSearchPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.search.ReindexAll(ctx))
	for i := 0; i < 5; i++ {
		f.post(t, fmt.Sprintf("golang tip %d", i))
	}

	page, err := f.blog.SearchPosts(ctx, port.SearchRequest{Keyword: "golang", PageRequest: port.PageRequest{PageNo: 2, PageSize: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Len(t, page.Content, 1)

	page, err = f.blog.SearchPosts(ctx, port.SearchRequest{Keyword: "golang", PageRequest: port.PageRequest{PageNo: 9, PageSize: 2}})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}

func TestReindexAllSpansBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < reindexBatch+3; i++ {
		require.NoError(t, f.posts.Save(ctx, &domain.Post{ID: fmt.Sprintf("p%d", i), Title: "bulk", Text: "entry"}))
	}
	require.NoError(t, f.search.ReindexAll(ctx))

	ids, err := f.search.Query(ctx, "bulk")
	require.NoError(t, err)
	assert.Len(t, ids, reindexBatch+3)
}

func TestSearchHugePageNumberIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, "Hello world")
	require.NoError(t, f.search.ReindexAll(ctx))

	page, err := f.blog.SearchPosts(ctx, port.SearchRequest{
		Keyword:     "hello",
		PageRequest: port.PageRequest{PageNo: 1 << 62, PageSize: 10},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.EqualValues(t, 1, page.Total)

	posts, err := f.blog.ListPosts(ctx, port.PageRequest{PageNo: 1 << 62, PageSize: 100})
	require.NoError(t, err)
	assert.Empty(t, posts.Content)
}
