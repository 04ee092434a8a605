package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/myblog/internal/config"
	"github.com/strogmv/myblog/internal/port"
)

func testConfig() *config.Config {
	return &config.Config{
		Storage:        config.StorageMemory,
		JWTAlg:         "HS256",
		JWTSecret:      "container-test-secret-0123456789abcdef",
		JWTIssuer:      "myblog",
		JWTAudience:    "myblog-api",
		JWTTTL:         time.Hour,
		BcryptCost:     4,
		LoginRateLimit: 10,
		CORSOrigins:    []string{"*"},
		RequestTimeout: 5 * time.Second,
		MediaBaseURL:   "http://media.test",
		AdminUsername:  "root",
		AdminPassword:  "toor",
		AdminDisplay:   "Root",
	}
}

func TestContainerStart(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(ctx, testConfig())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	rec := httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Start(ctx), "restart keeps a single admin")

	rec = httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp, err := c.SvcAuth.Login(ctx, port.LoginRequest{Username: "root", Password: "toor"})
	require.NoError(t, err)
	p, err := c.SvcAuth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
}

func TestContainerRejectsBadSigner(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"
	_, err := NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}
