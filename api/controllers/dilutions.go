package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/thedilution/dilution-backend/api/responses"
	"github.com/thedilution/dilution-backend/api/validators"
	"github.com/thedilution/dilution-backend/internal/dilutions"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

type createDilutionRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Purpose   string `json:"purpose" validate:"max=500"`
	FormulaID string `json:"formula_id" validate:"required,uuid4"`
}

type updateDilutionRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=255"`
	Purpose   *string `json:"purpose" validate:"omitempty,max=500"`
	FormulaID *string `json:"formula_id" validate:"omitempty,uuid4"`
}

// CreateDilution registers a named preparation backed by a formula.
func CreateDilution(svc dilutions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dilutions service unavailable"))
			return
		}

		var req createDilutionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		formulaID, err := uuid.Parse(req.FormulaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid formula_id"))
			return
		}

		dilution, err := svc.Create(r.Context(), dilutions.CreateInput{
			Name:      req.Name,
			Purpose:   req.Purpose,
			FormulaID: formulaID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dilution)
	}
}

// GetDilution fetches one preparation with its formula.
func GetDilution(svc dilutions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dilutions service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dilution, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dilution)
	}
}

// ListDilutions returns all preparations.
func ListDilutions(svc dilutions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dilutions service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UpdateDilution mutates a preparation's metadata or formula binding.
func UpdateDilution(svc dilutions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dilutions service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateDilutionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := dilutions.UpdateInput{
			Name:    req.Name,
			Purpose: req.Purpose,
		}
		if req.FormulaID != nil {
			formulaID, parseErr := uuid.Parse(*req.FormulaID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid formula_id"))
				return
			}
			input.FormulaID = &formulaID
		}

		dilution, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dilution)
	}
}

// DeleteDilution removes a preparation.
func DeleteDilution(svc dilutions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dilutions service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"deleted": id.String()})
	}
}
