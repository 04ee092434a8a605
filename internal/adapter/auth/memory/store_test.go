package authstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/myblog/internal/port"
)

func TestLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec, err := s.Record(ctx, "u1", "tok-a")
	require.NoError(t, err)
	assert.True(t, rec.IsLive())

	_, err = s.Record(ctx, "u1", "tok-a")
	assert.ErrorIs(t, err, port.ErrConflict)

	_, err = s.Record(ctx, "u1", "tok-b")
	require.NoError(t, err)
	_, err = s.Record(ctx, "u2", "tok-c")
	require.NoError(t, err)

	n, err := s.RevokeAllLive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.RevokeAllLive(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)

	live, err := s.IsLive(ctx, "tok-c")
	require.NoError(t, err)
	assert.True(t, live, "other users are untouched")

	revoked, err := s.Revoke(ctx, "tok-c")
	require.NoError(t, err)
	require.NotNil(t, revoked)
	assert.True(t, revoked.Expired)
	assert.True(t, revoked.Revoked)

	again, err := s.Revoke(ctx, "tok-c")
	require.NoError(t, err)
	assert.NotNil(t, again, "revoking twice is harmless")

	unknown, err := s.Revoke(ctx, "never-issued")
	require.NoError(t, err)
	assert.Nil(t, unknown)

	live, err = s.IsLive(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, live)

	rows, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].IsLive())
	assert.False(t, rows[1].IsLive())
}
