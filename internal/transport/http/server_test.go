package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authstore "github.com/strogmv/myblog/internal/adapter/auth/memory"
	"github.com/strogmv/myblog/internal/adapter/events/noop"
	"github.com/strogmv/myblog/internal/adapter/repository/memory"
	storagemem "github.com/strogmv/myblog/internal/adapter/storage/memory"
	"github.com/strogmv/myblog/internal/pkg/auth"
	"github.com/strogmv/myblog/internal/pkg/report"
	"github.com/strogmv/myblog/internal/port"
	"github.com/strogmv/myblog/internal/service"
)

type testAPI struct {
	t      *testing.T
	srv    *httptest.Server
	auth   *service.AuthImpl
	search *service.SearchImpl
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()
	signer, err := auth.NewSigner(auth.Options{
		Alg:      "HS256",
		Secret:   "transport-test-secret-0123456789abcdef",
		Issuer:   "myblog",
		Audience: "myblog-api",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	posts := memory.NewPostRepositoryStub()
	tx := memory.NewTxManager()
	search := service.NewSearchImpl(posts)
	authSvc := service.NewAuthImpl(memory.NewUserRepositoryStub(), authstore.NewMemoryStore(), signer, tx, noop.Publisher{}, bcrypt.MinCost)
	blogSvc := service.NewBlogImpl(posts, memory.NewPostTagRepositoryStub(), memory.NewTagRepositoryStub(), tx, noop.Publisher{}, search, storagemem.NewStore("http://files.test"))

	srv := httptest.NewServer(NewServer(authSvc, blogSvc, search, report.NewGenerator(), opts).Handler())
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv, auth: authSvc, search: search}
}

type problemBody struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func (a *testAPI) do(method, path, token string, body any) *http.Response {
	a.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(a.t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (a *testAPI) expectProblem(resp *http.Response, status int, code string) {
	a.t.Helper()
	require.Equal(a.t, status, resp.StatusCode)
	assert.Equal(a.t, "application/problem+json", resp.Header.Get("Content-Type"))
	p := decode[problemBody](a.t, resp)
	assert.Equal(a.t, code, p.Code)
}

// adminToken seeds the bootstrap administrator and logs in as it.
func (a *testAPI) adminToken() string {
	a.t.Helper()
	require.NoError(a.t, a.auth.EnsureAdmin(context.Background(), port.RegisterRequest{Username: "root", Password: "toor", DisplayName: "Root"}))
	return a.login("root", "toor")
}

func (a *testAPI) login(username, password string) string {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/users/login", "", port.LoginRequest{Username: username, Password: password})
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	return decode[port.TokenResponse](a.t, resp).Token
}

// userToken registers username through the admin and returns a fresh login.
func (a *testAPI) userToken(admin, username string) string {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/users/register", admin, port.RegisterRequest{Username: username, Password: "pw", DisplayName: username})
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	return a.login(username, "pw")
}

func TestPublicRoutesAreOpen(t *testing.T) {
	api := newTestAPI(t, Options{})
	for _, path := range []string{"/posts", "/tags", "/healthz", "/metrics"} {
		resp := api.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	api := newTestAPI(t, Options{})

	api.expectProblem(api.do(http.MethodPost, "/posts", "", port.PostRequest{Title: "t"}), http.StatusUnauthorized, "AUTHENTICATION_REQUIRED")
	api.expectProblem(api.do(http.MethodPost, "/users/register", "", port.RegisterRequest{Username: "a", Password: "b", DisplayName: "c"}), http.StatusUnauthorized, "AUTHENTICATION_REQUIRED")
	api.expectProblem(api.do(http.MethodPost, "/posts", "garbage.token.value", port.PostRequest{Title: "t"}), http.StatusUnauthorized, "INVALID_TOKEN")

	// A bad token on a public route is ignored.
	resp := api.do(http.MethodGet, "/posts", "garbage.token.value", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t, Options{})
	admin := api.adminToken()
	alice := api.userToken(admin, "alice")

	api.expectProblem(api.do(http.MethodGet, "/users", alice, nil), http.StatusForbidden, "FORBIDDEN")
	api.expectProblem(api.do(http.MethodGet, "/admin/reports/tags.pdf", alice, nil), http.StatusForbidden, "FORBIDDEN")

	resp := api.do(http.MethodGet, "/users", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[port.Page[port.UserResponse]](t, resp)
	assert.EqualValues(t, 2, page.Total)

	resp = api.do(http.MethodGet, "/users/me", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[port.UserResponse](t, resp)
	assert.Equal(t, "alice", me.Username)

	resp = api.do(http.MethodDelete, "/users/"+me.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	api.expectProblem(api.do(http.MethodGet, "/users/me", alice, nil), http.StatusUnauthorized, "INVALID_TOKEN")
}

func TestLoginLogout(t *testing.T) {
	api := newTestAPI(t, Options{})
	admin := api.adminToken()
	api.userToken(admin, "alice")

	api.expectProblem(api.do(http.MethodPost, "/users/login", "", port.LoginRequest{Username: "alice", Password: "nope"}), http.StatusUnauthorized, "BAD_CREDENTIALS")

	token := api.login("alice", "pw")
	resp := api.do(http.MethodGet, "/users/me/sessions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessions := decode[[]port.SessionResponse](t, resp)
	assert.Len(t, sessions, 2)

	resp = api.do(http.MethodPost, "/users/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	api.expectProblem(api.do(http.MethodGet, "/users/me", token, nil), http.StatusUnauthorized, "INVALID_TOKEN")

	resp = api.do(http.MethodPost, "/users/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = api.do(http.MethodPost, "/users/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestTagLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t, Options{})
	admin := api.adminToken()
	alice := api.userToken(admin, "alice")

	resp := api.do(http.MethodPost, "/posts", alice, port.PostRequest{Title: "Hello", Text: "world"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	post := decode[port.PostResponse](t, resp)

	resp = api.do(http.MethodPost, "/tags", alice, port.TagsRequest{Tags: []string{"go"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(http.MethodPost, "/posts/"+post.ID+"/tags", alice, port.TagsRequest{Tags: []string{"go"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, post.ID, resp.Header.Get("Post-ID"))
	tagged := decode[port.PostResponse](t, resp)
	require.Len(t, tagged.Tags, 1)

	api.expectProblem(api.do(http.MethodPost, "/posts/"+post.ID+"/tags", alice, port.TagsRequest{Tags: []string{"go"}}), http.StatusBadRequest, "TAG_ALREADY_ON_POST")

	resp = api.do(http.MethodGet, "/posts/"+post.ID+"/tags", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]port.TagResponse](t, resp), 1)

	resp = api.do(http.MethodGet, "/posts/tag?tagName=go", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[port.Page[port.PostResponse]](t, resp).Total)

	resp = api.do(http.MethodDelete, "/posts/"+post.ID+"/tags", alice, port.TagsRequest{Tags: []string{"go"}})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	api.expectProblem(api.do(http.MethodDelete, "/posts/"+post.ID+"/tags", alice, port.TagsRequest{Tags: []string{"go"}}), http.StatusBadRequest, "NO_TAGS_ON_POST")

	api.expectProblem(api.do(http.MethodGet, "/posts/missing", "", nil), http.StatusNotFound, "POST_NOT_FOUND")
}

func TestMalformedBodies(t *testing.T) {
	api := newTestAPI(t, Options{})
	admin := api.adminToken()

	api.expectProblem(api.do(http.MethodPost, "/tags", admin, "{not json"), http.StatusBadRequest, "MALFORMED_BODY")
	api.expectProblem(api.do(http.MethodPost, "/tags", admin, ""), http.StatusBadRequest, "BODY_REQUIRED")
	api.expectProblem(api.do(http.MethodGet, "/posts?pageNo=x", "", nil), http.StatusBadRequest, "BAD_PARAMETER")
	api.expectProblem(api.do(http.MethodPost, "/tags", admin, strings.Repeat(" ", jsonBodyLimit+1)), http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE")
}

func TestSearchAndReadiness(t *testing.T) {
	api := newTestAPI(t, Options{})
	admin := api.adminToken()

	api.expectProblem(api.do(http.MethodGet, "/readyz", "", nil), http.StatusServiceUnavailable, "NOT_READY")
	api.expectProblem(api.do(http.MethodGet, "/posts/search?keyword=hello", "", nil), http.StatusServiceUnavailable, "SEARCH_NOT_READY")

	require.NoError(t, api.search.ReindexAll(context.Background()))
	resp := api.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(http.MethodPost, "/posts", admin, port.PostRequest{Title: "Hello world"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(http.MethodGet, "/posts/search?keyword=hello", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[port.Page[port.PostResponse]](t, resp).Total)

	api.expectProblem(api.do(http.MethodGet, "/posts/search?keyword=nonexistent-keyword", "", nil), http.StatusNotFound, "NO_MATCH_FOUND")
}

func TestUploadMedia(t *testing.T) {
	api := newTestAPI(t, Options{})
	admin := api.adminToken()
	resp := api.do(http.MethodPost, "/posts", admin, port.PostRequest{Title: "Pictures"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	post := decode[port.PostResponse](t, resp)

	resp = api.do(http.MethodPut, "/posts/"+post.ID+"/media/image", admin, "\x89PNG fake")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[port.PostResponse](t, resp)
	assert.True(t, strings.HasPrefix(updated.ImageURL, "http://files.test/"), updated.ImageURL)

	api.expectProblem(api.do(http.MethodPut, "/posts/"+post.ID+"/media/audio", admin, "x"), http.StatusBadRequest, "VALIDATION_FAILED")
	api.expectProblem(api.do(http.MethodPut, "/posts/"+post.ID+"/media/image", "", "x"), http.StatusUnauthorized, "AUTHENTICATION_REQUIRED")
}

func TestTagReport(t *testing.T) {
	api := newTestAPI(t, Options{})
	admin := api.adminToken()
	api.do(http.MethodPost, "/tags", admin, port.TagsRequest{Tags: []string{"go", "sql"}})

	resp := api.do(http.MethodGet, "/admin/reports/tags.pdf", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestLoginIsRateLimited(t *testing.T) {
	api := newTestAPI(t, Options{LoginLimiter: NewRateLimiter("login", 2, time.Minute, nil)})
	creds := port.LoginRequest{Username: "nobody", Password: "pw"}

	for i := 0; i < 2; i++ {
		api.expectProblem(api.do(http.MethodPost, "/users/login", "", creds), http.StatusUnauthorized, "BAD_CREDENTIALS")
	}
	resp := api.do(http.MethodPost, "/users/login", "", creds)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	api.expectProblem(resp, http.StatusTooManyRequests, "RATE_LIMITED")
}
