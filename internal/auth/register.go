package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/thedilution/dilution-backend/internal/users"
	"github.com/thedilution/dilution-backend/pkg/auth"
	"github.com/thedilution/dilution-backend/pkg/config"
	"github.com/thedilution/dilution-backend/pkg/enums"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

// RegisterService creates a staff account and signs it in immediately.
type RegisterService interface {
	Register(ctx context.Context, input RegisterInput) (*LoginResult, error)
}

// RegisterInput captures a self-registration request.
type RegisterInput struct {
	Username   string
	Password   string
	Role       enums.UserRole
	Department string
}

type registerService struct {
	users  users.Service
	jwtCfg config.JWTConfig
	now    func() time.Time
}

// NewRegisterService wires the registration flow on top of account creation.
func NewRegisterService(usersSvc users.Service, jwtCfg config.JWTConfig) (RegisterService, error) {
	if usersSvc == nil {
		return nil, fmt.Errorf("users service required")
	}
	return &registerService{users: usersSvc, jwtCfg: jwtCfg, now: time.Now}, nil
}

func (s *registerService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	user, err := s.users.Create(ctx, users.CreateInput{
		Username:   input.Username,
		Password:   input.Password,
		Role:       input.Role,
		Department: input.Department,
	})
	if err != nil {
		return nil, err
	}

	token, err := auth.MintAccessToken(s.jwtCfg, s.now().UTC(), auth.AccessTokenPayload{
		UserID:     user.ID,
		Role:       user.Role,
		Department: user.Department,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}
