package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef-test"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSigner(t *testing.T, clock *fakeClock) *Signer {
	t.Helper()
	s, err := NewSigner(Options{
		Alg:      "HS256",
		Secret:   testSecret,
		Issuer:   "myblog",
		Audience: "myblog-api",
		TTL:      24 * time.Hour,
		Now:      clock.Now,
	})
	require.NoError(t, err)
	return s
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	s := newTestSigner(t, clock)

	token, err := s.Issue("alice", map[string]any{"role": "USER", "sub": "mallory"})
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, clock.t.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, "USER", claims.Extra["role"])
	assert.NotEmpty(t, claims.ID)
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestSigner(t, clock)

	a, err := s.Issue("alice", nil)
	require.NoError(t, err)
	b, err := s.Issue("alice", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyRejects(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestSigner(t, clock)
	valid, err := s.Issue("alice", nil)
	require.NoError(t, err)

	other, err := NewSigner(Options{Alg: "HS256", Secret: strings.Repeat("x", 40), Issuer: "myblog", Audience: "myblog-api", TTL: time.Hour})
	require.NoError(t, err)
	foreign, err := other.Issue("alice", nil)
	require.NoError(t, err)

	wrongAud, err := NewSigner(Options{Alg: "HS256", Secret: testSecret, Issuer: "myblog", Audience: "elsewhere", TTL: time.Hour})
	require.NoError(t, err)
	foreignAud, err := wrongAud.Issue("alice", nil)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered signature", tampered},
		{"foreign key", foreign},
		{"foreign audience", foreignAud},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestSigner(t, clock)
	token, err := s.Issue("alice", nil)
	require.NoError(t, err)

	clock.Advance(23 * time.Hour)
	_, err = s.Verify(token)
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Second)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSignerValidation(t *testing.T) {
	_, err := NewSigner(Options{Alg: "HS256", Secret: "short", TTL: time.Hour})
	assert.Error(t, err)

	_, err = NewSigner(Options{Alg: "HS512", Secret: testSecret, TTL: time.Hour})
	assert.Error(t, err)

	_, err = NewSigner(Options{Alg: "HS256", Secret: testSecret})
	assert.Error(t, err)
}

func TestES256Signer(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	privDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	s, err := NewSigner(Options{
		Alg:        "ES256",
		PrivateKey: string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privDER})),
		PublicKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
		TTL:        time.Hour,
	})
	require.NoError(t, err)

	token, err := s.Issue("bob", nil)
	require.NoError(t, err)
	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
}
