package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/cdn-auth-service/internal/auth"
	"github.com/spec-kit/cdn-auth-service/internal/config"
	"github.com/spec-kit/cdn-auth-service/internal/domain"
	"github.com/spec-kit/cdn-auth-service/internal/repository"
	"github.com/spec-kit/cdn-auth-service/internal/token"
)

// ErrInvalidCredentials covers every login failure: unknown username, wrong
// password, suspended account. Callers must not distinguish them.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService coordinates credential checks and token issuance.
type AuthService struct {
	users      repository.UserRepository
	authority  *token.Authority
	keyring    *token.Keyring
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service. The keyring supplies the active signing
// secret; rotation is handled outside this service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, authority *token.Authority, keyring *token.Keyring, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		authority:  authority,
		keyring:    keyring,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Login authenticates a username/password pair and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	signed, expiresAt, err := s.authority.Issue(user.Username, s.keyring.Current(), time.Now())
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, signed, expiresAt, nil
}

// Register creates a new credential record and issues a first token.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, "", time.Time{}, errors.New("username already registered")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	signed, expiresAt, err := s.authority.Issue(user.Username, s.keyring.Current(), time.Now())
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, signed, expiresAt, nil
}

// EnsureBootstrapUser creates the configured bootstrap account if it does not
// exist yet. Credentials come from the environment, never from source.
func (s *AuthService) EnsureBootstrapUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	s.logger.Info("bootstrap user created", zap.String("username", username))
	return nil
}

// Authority exposes the token authority for middleware usage.
func (s *AuthService) Authority() *token.Authority {
	return s.authority
}
