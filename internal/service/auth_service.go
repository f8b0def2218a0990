package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pmboard/internal/model"
	"pmboard/internal/repository"
	"pmboard/pkg/rbac"
	"pmboard/pkg/util"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSignup      = errors.New("email and a password of at least 8 characters are required")
	ErrUnknownRole        = errors.New("unknown role")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type AuthService struct {
	users     UserStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(users UserStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new pm or member user. Role defaults to member.
func (s *AuthService) Register(ctx context.Context, email, name, password, role string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, ErrInvalidSignup
	}
	if role == "" {
		role = rbac.RoleMember
	}
	// admin accounts are created directly in the database
	if !rbac.ValidRole(role) || role == rbac.RoleAdmin {
		return nil, ErrUnknownRole
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		// the unique email index catches concurrent registrations
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return u, nil
}

// Login checks user credentials and returns JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(u.ID, u.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}

	return token, u, nil
}
