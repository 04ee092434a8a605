package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authhybrid "github.com/strogmv/myblog/internal/adapter/auth/hybrid"
	authstore "github.com/strogmv/myblog/internal/adapter/auth/memory"
	"github.com/strogmv/myblog/internal/adapter/events/noop"
	storagemem "github.com/strogmv/myblog/internal/adapter/storage/memory"
	"github.com/strogmv/myblog/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Storage:       config.StorageMemory,
		JWTTTL:        time.Hour,
		TokenCacheTTL: 30 * time.Second,
		MediaBaseURL:  "http://media.test",
	}
}

func TestMemoryRuntime(t *testing.T) {
	c, err := NewRuntimeContainer(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.IsType(t, &authstore.MemoryStore{}, c.Ledger)
	assert.IsType(t, noop.Publisher{}, c.Publisher)
	assert.IsType(t, &storagemem.Store{}, c.Storage)
	assert.Nil(t, c.Redis)
}

func TestRedisFrontsTheLedger(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.RedisAddr = mr.Addr()

	c, err := NewRuntimeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NotNil(t, c.Redis)
	assert.IsType(t, &authhybrid.Ledger{}, c.Ledger)

	ctx := context.Background()
	_, err = c.Ledger.Record(ctx, "u1", "tok")
	require.NoError(t, err)
	live, err := c.Ledger.IsLive(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, live)
	assert.NotEmpty(t, mr.Keys(), "live lookup is cached")
}

func TestRuntimeFailsOnUnreachableNATS(t *testing.T) {
	cfg := memoryConfig()
	cfg.NATSURL = "nats://127.0.0.1:1"
	_, err := NewRuntimeContainer(context.Background(), cfg)
	assert.Error(t, err)
}
