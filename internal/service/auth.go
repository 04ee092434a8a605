package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/pkg/auth"
	"github.com/strogmv/myblog/internal/pkg/helpers"
	"github.com/strogmv/myblog/internal/pkg/logger"
	"github.com/strogmv/myblog/internal/port"
)

// TokenSigner issues and verifies signed session tokens.
type TokenSigner interface {
	Issue(subject string, extra map[string]any) (string, error)
	Verify(token string) (*auth.Claims, error)
}

type AuthImpl struct {
	UserRepo  port.UserRepository
	Ledger    port.TokenLedger
	signer    TokenSigner
	txManager port.TxManager
	publisher port.Publisher

	bcryptCost int
	// dummyHash keeps unknown-username logins as slow as wrong-password ones.
	dummyHash []byte
	now       func() time.Time
}

func NewAuthImpl(userRepo port.UserRepository, ledger port.TokenLedger, signer TokenSigner, txManager port.TxManager, publisher port.Publisher, bcryptCost int) *AuthImpl {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	return &AuthImpl{
		UserRepo:   userRepo,
		Ledger:     ledger,
		signer:     signer,
		txManager:  txManager,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		now:        time.Now,
	}
}

func (s *AuthImpl) Register(ctx context.Context, req port.RegisterRequest) (resp port.TokenResponse, err error) {
	defer func() { authEvents.WithLabelValues("register", outcome(err)).Inc() }()

	req.Username = strings.TrimSpace(req.Username)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := req.Validate(); err != nil {
		return resp, invalid(err)
	}

	user, err := s.newUser(req, domain.RoleUser)
	if err != nil {
		return resp, err
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.createUser(ctx, user); err != nil {
			return err
		}
		token, err := s.issueAndRecord(ctx, user)
		if err != nil {
			// The memory TxManager cannot roll back, so the row is removed here.
			if derr := s.UserRepo.Delete(ctx, user.ID); derr != nil {
				return errors.Join(err, fmt.Errorf("discard user: %w", derr))
			}
			return err
		}
		resp.Token = token
		return nil
	})
	if err != nil {
		return port.TokenResponse{}, err
	}

	logger.From(ctx).Info("user registered",
		slog.String("service", "auth"),
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	s.publish(ctx, domain.SubjectUserRegistered, s.publisher.PublishUserRegistered(ctx, domain.UserRegistered{
		UserID:   user.ID,
		Username: user.Username,
	}))
	return resp, nil
}

// Login verifies the password, kills every live token of the user and
// records a fresh one. The user row is locked for the revoke/record pair,
// so concurrent logins end with exactly one live token.
func (s *AuthImpl) Login(ctx context.Context, req port.LoginRequest) (resp port.TokenResponse, err error) {
	defer func() { authEvents.WithLabelValues("login", outcome(err)).Inc() }()

	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		return resp, invalid(err)
	}

	user, err := s.UserRepo.FindByUsername(ctx, req.Username)
	if errors.Is(err, port.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		s.rejectLogin(ctx, req.Username, "unknown username")
		return resp, ErrBadCredentials
	}
	if err != nil {
		return resp, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.rejectLogin(ctx, req.Username, "password mismatch")
		return resp, ErrBadCredentials
	}

	var revoked int
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.UserRepo.LockByID(ctx, user.ID); err != nil {
			if errors.Is(err, port.ErrNotFound) {
				return ErrBadCredentials
			}
			return fmt.Errorf("lock user: %w", err)
		}
		token, err := s.issue(user)
		if err != nil {
			return err
		}
		revoked, err = s.Ledger.RevokeAllLive(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("revoke live tokens: %w", err)
		}
		if _, err := s.Ledger.Record(ctx, user.ID, token); err != nil {
			return fmt.Errorf("record token: %w", err)
		}
		resp.Token = token
		return nil
	})
	if err != nil {
		return port.TokenResponse{}, err
	}

	logger.From(ctx).Info("user logged in",
		slog.String("service", "auth"),
		slog.String("user_id", user.ID),
		slog.Int("revoked_tokens", revoked),
	)
	s.publish(ctx, domain.SubjectUserLoggedIn, s.publisher.PublishUserLoggedIn(ctx, domain.UserLoggedIn{
		UserID:        user.ID,
		RevokedTokens: revoked,
	}))
	return resp, nil
}

// Logout revokes token. Unknown or already revoked tokens are accepted.
func (s *AuthImpl) Logout(ctx context.Context, token string) (err error) {
	defer func() { authEvents.WithLabelValues("logout", outcome(err)).Inc() }()

	if token == "" {
		return nil
	}
	rec, err := s.Ledger.Revoke(ctx, token)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if rec == nil {
		logger.From(ctx).Debug("logout of unknown token",
			slog.String("service", "auth"),
			slog.String("token", logger.TokenPrefix(token)),
		)
		return nil
	}
	s.publish(ctx, domain.SubjectUserLoggedOut, s.publisher.PublishUserLoggedOut(ctx, domain.UserLoggedOut{UserID: rec.UserID}))
	return nil
}

// Authenticate checks the signature first and the ledger second, then
// resolves the subject to a current user.
func (s *AuthImpl) Authenticate(ctx context.Context, token string) (*port.Principal, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	live, err := s.Ledger.IsLive(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("check token: %w", err)
	}
	if !live {
		return nil, ErrInvalidToken
	}
	user, err := s.UserRepo.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, port.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &port.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Token:    token,
	}, nil
}

func (s *AuthImpl) GetUser(ctx context.Context, id string) (port.UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return port.UserResponse{}, err
	}
	return port.NewUserResponse(user), nil
}

func (s *AuthImpl) ListUsers(ctx context.Context, req port.PageRequest) (resp port.Page[port.UserResponse], err error) {
	if err := req.Validate(); err != nil {
		return resp, invalid(err)
	}
	offset, limit := helpers.Page(req.PageNo, req.PageSize)
	users, err := s.UserRepo.ListAll(ctx, offset, limit)
	if err != nil {
		return resp, err
	}
	total, err := s.UserRepo.Count(ctx)
	if err != nil {
		return resp, err
	}
	resp = port.Page[port.UserResponse]{
		Content:  make([]port.UserResponse, 0, len(users)),
		PageNo:   offset / limit,
		PageSize: limit,
		Total:    total,
	}
	for i := range users {
		resp.Content = append(resp.Content, port.NewUserResponse(&users[i]))
	}
	return resp, nil
}

// DeleteUser removes the account and kills its live tokens. Token rows
// stay for audit.
func (s *AuthImpl) DeleteUser(ctx context.Context, id string) error {
	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.UserRepo.LockByID(ctx, id); err != nil {
			if errors.Is(err, port.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		n, err := s.Ledger.RevokeAllLive(ctx, id)
		if err != nil {
			return fmt.Errorf("revoke live tokens: %w", err)
		}
		if err := s.UserRepo.Delete(ctx, id); err != nil {
			return err
		}
		logger.From(ctx).Info("user deleted",
			slog.String("service", "auth"),
			slog.String("user_id", id),
			slog.Int("revoked_tokens", n),
		)
		return nil
	})
}

func (s *AuthImpl) ListSessions(ctx context.Context, userID string) ([]port.SessionResponse, error) {
	if _, err := s.findUser(ctx, userID); err != nil {
		return nil, err
	}
	tokens, err := s.Ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]port.SessionResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, port.SessionResponse{
			ID:        t.ID,
			Type:      string(t.Type),
			Expired:   t.Expired,
			Revoked:   t.Revoked,
			CreatedAt: t.CreatedAt,
		})
	}
	return out, nil
}

// EnsureAdmin creates the bootstrap administrator, or promotes an existing
// account with that username. No token is issued.
func (s *AuthImpl) EnsureAdmin(ctx context.Context, req port.RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.UserRepo.FindByUsername(ctx, req.Username)
		switch {
		case err == nil:
			if existing.Role == domain.RoleAdmin {
				return nil
			}
			existing.Role = domain.RoleAdmin
			return s.UserRepo.Save(ctx, existing)
		case !errors.Is(err, port.ErrNotFound):
			return err
		}
		user, err := s.newUser(req, domain.RoleAdmin)
		if err != nil {
			return err
		}
		if err := s.createUser(ctx, user); err != nil {
			return err
		}
		logger.From(ctx).Info("admin account created", slog.String("username", user.Username))
		return nil
	})
}

func (s *AuthImpl) newUser(req port.RegisterRequest, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		Role:         role,
		CreatedAt:    s.now(),
	}, nil
}

// createUser checks the username before inserting and also maps the
// storage-level unique violation, which covers concurrent registrations.
func (s *AuthImpl) createUser(ctx context.Context, user *domain.User) error {
	_, err := s.UserRepo.FindByUsername(ctx, user.Username)
	if err == nil {
		return ErrUsernameNotUnique
	}
	if !errors.Is(err, port.ErrNotFound) {
		return err
	}
	if err := s.UserRepo.Save(ctx, user); err != nil {
		if errors.Is(err, port.ErrConflict) {
			return ErrUsernameNotUnique
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *AuthImpl) issueAndRecord(ctx context.Context, user *domain.User) (string, error) {
	token, err := s.issue(user)
	if err != nil {
		return "", err
	}
	if _, err := s.Ledger.Record(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("record token: %w", err)
	}
	return token, nil
}

func (s *AuthImpl) issue(user *domain.User) (string, error) {
	token, err := s.signer.Issue(user.Username, map[string]any{
		"uid":  user.ID,
		"role": string(user.Role),
	})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *AuthImpl) findUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if errors.Is(err, port.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *AuthImpl) rejectLogin(ctx context.Context, username, reason string) {
	logger.From(ctx).Warn("login rejected",
		slog.String("service", "auth"),
		slog.String("username", username),
		slog.String("reason", reason),
	)
}

func (s *AuthImpl) publish(ctx context.Context, subject string, err error) {
	if err != nil {
		logger.From(ctx).Warn("event publish failed",
			slog.String("subject", subject),
			slog.Any("error", err),
		)
	}
}

var _ port.Auth = (*AuthImpl)(nil)
