package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/myblog/internal/domain"
)

func TestTagUsageReport(t *testing.T) {
	g := NewGenerator()

	out, err := g.TagUsageReport([]domain.TagUsage{
		{Tag: domain.Tag{ID: "1", Name: "go"}, Posts: 3},
		{Tag: domain.Tag{ID: "2", Name: "rust"}, Posts: 0},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty, err := g.TagUsageReport(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}
