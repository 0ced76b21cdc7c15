package controllers

import (
	"net/http"

	"github.com/thedilution/dilution-backend/api/responses"
	"github.com/thedilution/dilution-backend/api/validators"
	"github.com/thedilution/dilution-backend/internal/auth"
	"github.com/thedilution/dilution-backend/pkg/enums"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token      string `json:"token"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// Login exchanges credentials for a bearer token.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loginResponse{
			Token:      result.Token,
			UserID:     result.User.ID.String(),
			Username:   result.User.Username,
			Role:       string(result.User.Role),
			Department: result.User.Department,
		})
	}
}

type registerRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=64"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department" validate:"max=128"`
}

// Register creates an account and returns a bearer token for it.
func Register(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req registerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		result, err := svc.Register(r.Context(), auth.RegisterInput{
			Username:   req.Username,
			Password:   req.Password,
			Role:       role,
			Department: req.Department,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, loginResponse{
			Token:      result.Token,
			UserID:     result.User.ID.String(),
			Username:   result.User.Username,
			Role:       string(result.User.Role),
			Department: result.User.Department,
		})
	}
}
