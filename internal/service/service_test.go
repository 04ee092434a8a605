package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authstore "github.com/strogmv/myblog/internal/adapter/auth/memory"
	"github.com/strogmv/myblog/internal/adapter/repository/memory"
	storagemem "github.com/strogmv/myblog/internal/adapter/storage/memory"
	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/pkg/auth"
	"github.com/strogmv/myblog/internal/port"
)

const testSecret = "service-test-secret-0123456789abcdef"

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (p *recordingPublisher) record(e any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) PublishUserRegistered(_ context.Context, e domain.UserRegistered) error {
	return p.record(e)
}
func (p *recordingPublisher) PublishUserLoggedIn(_ context.Context, e domain.UserLoggedIn) error {
	return p.record(e)
}
func (p *recordingPublisher) PublishUserLoggedOut(_ context.Context, e domain.UserLoggedOut) error {
	return p.record(e)
}
func (p *recordingPublisher) PublishPostTagsChanged(_ context.Context, e domain.PostTagsChanged) error {
	return p.record(e)
}
func (p *recordingPublisher) PublishTagDeleted(_ context.Context, e domain.TagDeleted) error {
	return p.record(e)
}

func (p *recordingPublisher) count(match func(any) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if match(e) {
			n++
		}
	}
	return n
}

type fixture struct {
	auth   *AuthImpl
	blog   *BlogImpl
	search *SearchImpl

	users    *memory.UserRepositoryStub
	posts    *memory.PostRepositoryStub
	tags     *memory.TagRepositoryStub
	postTags *memory.PostTagRepositoryStub
	ledger   *authstore.MemoryStore
	files    *storagemem.Store
	signer   *auth.Signer
	pub      *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := auth.NewSigner(auth.Options{
		Alg:      "HS256",
		Secret:   testSecret,
		Issuer:   "myblog",
		Audience: "myblog-api",
		TTL:      24 * time.Hour,
	})
	require.NoError(t, err)

	f := &fixture{
		users:    memory.NewUserRepositoryStub(),
		posts:    memory.NewPostRepositoryStub(),
		tags:     memory.NewTagRepositoryStub(),
		postTags: memory.NewPostTagRepositoryStub(),
		ledger:   authstore.NewMemoryStore(),
		files:    storagemem.NewStore("http://files.test"),
		signer:   signer,
		pub:      &recordingPublisher{},
	}
	tx := memory.NewTxManager()
	f.search = NewSearchImpl(f.posts)
	f.auth = NewAuthImpl(f.users, f.ledger, signer, tx, f.pub, bcrypt.MinCost)
	f.blog = NewBlogImpl(f.posts, f.postTags, f.tags, tx, f.pub, f.search, f.files)
	return f
}

func (f *fixture) register(t *testing.T, username, password string) string {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), port.RegisterRequest{
		Username:    username,
		Password:    password,
		DisplayName: username,
	})
	require.NoError(t, err)
	return resp.Token
}

func (f *fixture) post(t *testing.T, title string) port.PostResponse {
	t.Helper()
	p, err := f.blog.CreatePost(context.Background(), port.PostRequest{Title: title, Text: title + " body"})
	require.NoError(t, err)
	return p
}

func (f *fixture) createTags(t *testing.T, names ...string) []port.TagResponse {
	t.Helper()
	tags, err := f.blog.CreateTags(context.Background(), port.TagsRequest{Tags: names})
	require.NoError(t, err)
	return tags
}

func (f *fixture) liveTokens(t *testing.T, userID string) []domain.Token {
	t.Helper()
	rows, err := f.ledger.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	var live []domain.Token
	for _, r := range rows {
		if r.IsLive() {
			live = append(live, r)
		}
	}
	return live
}

func tagNames(tags []port.TagResponse) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}
