// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing session tokens.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dkolesnikov/bookshelf/internal/common"
	"github.com/dkolesnikov/bookshelf/internal/server/auth"
	"github.com/dkolesnikov/bookshelf/internal/server/config"
	"github.com/dkolesnikov/bookshelf/internal/server/models"
	"github.com/dkolesnikov/bookshelf/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
// - Register: create users with a bcrypt password hash
// - Login: verify credentials and mint a session token
// - GetByUsername: identity lookup for the auth gate
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      auth.NewTokenService([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
	}
}

// Tokens exposes the token service for the auth gate.
func (s *UserService) Tokens() *auth.TokenService {
	return s.tokens
}

// Register creates a new user with the given username and password. The
// plaintext password is hashed immediately and never stored or logged. A
// taken username yields common.ErrDuplicateUsername; the lookup here is only
// a fast path, the database unique index is the authoritative check.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return nil, common.ErrDuplicateUsername
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInternal
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrInternal
	}

	user, err := repo.Create(ctx, &models.User{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, common.ErrDuplicateUsername
		}
		return nil, common.ErrInternal
	}
	return user, nil
}

// Login verifies the provided password against the stored hash and, on
// success, returns a signed session token. An unknown username and a wrong
// password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", common.ErrInternal
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", common.ErrInternal
	}
	return token, nil
}

// GetByUsername resolves a user identity. Returns common.ErrNotFound for
// unknown usernames.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByUsername(ctx, username)
}
