package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type Service struct {
	users      UserStore
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	nowFunc    func() time.Time
	newID      func() string
}

type ServiceConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	BcryptCost int
}

func NewService(userStore UserStore, cfg ServiceConfig) (*Service, error) {
	if userStore == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be > 0")
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &Service{
		users:      userStore,
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.SessionTTL,
		bcryptCost: cost,
		nowFunc:    time.Now,
		newID:      uuid.NewString,
	}, nil
}

// Register creates a new account. It does not log the user in.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateRegistration(name, email, password); err != nil {
		return User{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return User{}, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.nowFunc().UTC(),
	}
	// the store's unique constraint still wins a concurrent race
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("store user: %w", err)
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrUserNotFound
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := s.nowFunc()
	expiresAt := now.Add(s.ttl)
	token, err := signToken(s.secret, Identity{UserID: u.ID, Email: u.Email}, now, expiresAt)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    u.ID,
		Email:     u.Email,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) ValidateToken(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}
	return parseToken(s.secret, token, s.nowFunc)
}

// SessionTTL is used by the HTTP layer for the cookie Max-Age.
func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

func validateRegistration(name, email, password string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
