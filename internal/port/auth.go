package port

import (
	"context"
	"time"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/pkg/helpers"
)

type Auth interface {
	Register(ctx context.Context, req RegisterRequest) (TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Logout(ctx context.Context, token string) error
	// Authenticate checks the signature first and the ledger second.
	Authenticate(ctx context.Context, token string) (*Principal, error)

	GetUser(ctx context.Context, id string) (UserResponse, error)
	ListUsers(ctx context.Context, req PageRequest) (Page[UserResponse], error)
	DeleteUser(ctx context.Context, id string) error
	ListSessions(ctx context.Context, userID string) ([]SessionResponse, error)
	EnsureAdmin(ctx context.Context, req RegisterRequest) error
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   string
	Username string
	Role     domain.Role
	Token    string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// Request/Response DTOs
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=15"`
	Password    string `json:"password" validate:"required,max=25"`
	DisplayName string `json:"displayName" validate:"required,max=20"`
}

func (d *RegisterRequest) Validate() error {
	return helpers.Validate(d)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=15"`
	Password string `json:"password" validate:"required,max=25"`
}

func (d *LoginRequest) Validate() error {
	return helpers.Validate(d)
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
}

type SessionResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Expired   bool      `json:"expired"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"createdAt"`
}

type PageRequest struct {
	PageNo   int `json:"pageNo" validate:"min=0"`
	PageSize int `json:"pageSize" validate:"min=0,max=100"`
}

func (d *PageRequest) Validate() error {
	return helpers.Validate(d)
}

// Page is one slice of a paged listing.
type Page[T any] struct {
	Content  []T   `json:"content"`
	PageNo   int   `json:"pageNo"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"totalElements"`
}
