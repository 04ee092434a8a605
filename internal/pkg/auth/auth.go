// Package auth signs and verifies session tokens. A Signer is a pure
// function of the token string, its key material and the clock; it never
// touches storage.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/strogmv/myblog/internal/config"
)

// ErrInvalidToken covers bad signatures, malformed tokens, foreign
// issuers or audiences, and expired tokens.
var ErrInvalidToken = errors.New("invalid token")

const minHMACKeyLen = 32

// Claims is what Verify extracts from a valid token.
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

type Options struct {
	Alg        string
	Secret     string
	PrivateKey string
	PublicKey  string
	Issuer     string
	Audience   string
	TTL        time.Duration
	Now        func() time.Time
}

type Signer struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	audience  string
	ttl       time.Duration
	now       func() time.Time
}

// NewSignerFromConfig builds the process-wide signer.
func NewSignerFromConfig(cfg *config.Config) (*Signer, error) {
	return NewSigner(Options{
		Alg:        cfg.JWTAlg,
		Secret:     cfg.JWTSecret,
		PrivateKey: cfg.JWTPrivateKey,
		PublicKey:  cfg.JWTPublicKey,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		TTL:        cfg.JWTTTL,
	})
}

func NewSigner(opts Options) (*Signer, error) {
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	s := &Signer{
		issuer:   opts.Issuer,
		audience: opts.Audience,
		ttl:      opts.TTL,
		now:      opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	switch strings.ToUpper(opts.Alg) {
	case "HS256":
		if len(opts.Secret) < minHMACKeyLen {
			return nil, fmt.Errorf("HS256 secret must be at least %d bytes", minHMACKeyLen)
		}
		s.method = jwt.SigningMethodHS256
		s.signKey = []byte(opts.Secret)
		s.verifyKey = []byte(opts.Secret)
	case "RS256":
		priv, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(opts.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("parse RSA private key: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("parse RSA public key: %w", err)
		}
		s.method = jwt.SigningMethodRS256
		s.signKey = priv
		s.verifyKey = pub
	case "ES256":
		priv, err := jwt.ParseECPrivateKeyFromPEM([]byte(opts.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("parse EC private key: %w", err)
		}
		pub, err := jwt.ParseECPublicKeyFromPEM([]byte(opts.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("parse EC public key: %w", err)
		}
		s.method = jwt.SigningMethodES256
		s.signKey = priv
		s.verifyKey = pub
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", opts.Alg)
	}
	return s, nil
}

// TTL reports the lifetime given to issued tokens.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject. Registered claims in extra are ignored.
func (s *Signer) Issue(subject string, extra map[string]any) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject is required")
	}
	now := s.now()
	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(s.ttl))
	claims["jti"] = randomTokenID()
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}
	if s.audience != "" {
		claims["aud"] = s.audience
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.signKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, algorithm, signature, issuer, audience and expiry.
func (s *Signer) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}

	out := &Claims{
		Subject:   sub,
		ExpiresAt: exp.Time,
		Extra:     map[string]any{},
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	for k, v := range claims {
		switch k {
		case "sub", "iat", "exp", "nbf", "iss", "aud":
		case "jti":
			out.ID, _ = v.(string)
		default:
			out.Extra[k] = v
		}
	}
	return out, nil
}

func randomTokenID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
