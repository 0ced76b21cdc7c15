package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/internal/users"
	"github.com/thedilution/dilution-backend/pkg/auth"
	"github.com/thedilution/dilution-backend/pkg/config"
	"github.com/thedilution/dilution-backend/pkg/db/models"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/security"
)

// Service authenticates staff and mints access tokens.
type Service interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// LoginResult carries the minted token and the authenticated account.
type LoginResult struct {
	Token string
	User  *models.User
}

type service struct {
	repo   users.Repository
	jwtCfg config.JWTConfig
	now    func() time.Time
}

// NewService wires the auth service.
func NewService(repo users.Repository, jwtCfg config.JWTConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, jwtCfg: jwtCfg, now: time.Now}, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// same error as a wrong password, no account enumeration
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now().UTC()
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		UserID:     user.ID,
		Role:       user.Role,
		Department: user.Department,
	})
	if err != nil {
		return nil, err
	}

	user.LastLoginAt = &now
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user}, nil
}
