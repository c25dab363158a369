// Package services contains server-side business logic. This file implements
// UserService: registration, credential verification, and issuing/renewing
// the access/refresh token pair.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vtlstk/spacecloud/internal/common"
	"github.com/vtlstk/spacecloud/internal/server/auth"
	"github.com/vtlstk/spacecloud/internal/server/config"
	"github.com/vtlstk/spacecloud/internal/server/models"
	"github.com/vtlstk/spacecloud/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides authentication-related operations:
//   - Register: create users with bcrypt-hashed passwords
//   - Login: verify credentials and mint a token pair
//   - Refresh: mint a new access token from a still-active refresh token
//   - Logout: revoke the stored refresh token
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	accessSecret                 []byte
	refreshSecret                []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		accessSecret:                 []byte(cfg.AccessSecretKey),
		refreshSecret:                []byte(cfg.RefreshSecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new user with the given username and password. The
// plaintext is hashed with bcrypt and never stored or logged. A taken
// username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, common.ErrorValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{UserName: username, PasswordHash: string(hash)}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the username/password pair and, on success, mints a token
// pair and persists the refresh token as the user's single active session.
// Any prior refresh token is overwritten and thereby invalidated. Unknown
// users and wrong passwords are both reported as common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, *TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUserName(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	access, err := auth.GenerateToken(user.UserName, user.ID, s.accessSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}
	refresh, err := auth.GenerateToken(user.UserName, user.ID, s.refreshSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	if err := repo.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, nil, common.ErrorInternal
	}

	return user, &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a refresh token and mints a new access token. The token
// must carry a valid signature and expiry, reference an existing user, and
// match that user's stored active token bit for bit; a superseded token is
// rejected even though it is still cryptographically valid. The refresh
// token itself is not rotated.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := auth.ParseToken(refreshToken, s.refreshSecret)
	if err != nil {
		return "", err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrTokenSuperseded
		}
		return "", common.ErrorInternal
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return "", common.ErrTokenSuperseded
	}

	access, err := auth.GenerateToken(user.UserName, user.ID, s.accessSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	return access, nil
}

// Logout revokes the user's stored refresh token. Access tokens already in
// the wild stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	repo := s.repomanager.Users(s.db)
	if err := repo.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("error clearing refresh token: %w", err)
	}
	return nil
}
