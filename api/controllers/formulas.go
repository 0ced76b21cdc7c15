package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/thedilution/dilution-backend/api/responses"
	"github.com/thedilution/dilution-backend/api/validators"
	"github.com/thedilution/dilution-backend/internal/formulas"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

type formulaDetailRequest struct {
	InventoryID      string `json:"inventory_id" validate:"required,uuid4"`
	RequiredQuantity int    `json:"required_quantity" validate:"required,gt=0"`
}

type createFormulaRequest struct {
	Name    string                 `json:"name" validate:"required,max=255"`
	Details []formulaDetailRequest `json:"details" validate:"required,min=1,dive"`
}

type setFormulaDetailsRequest struct {
	Details []formulaDetailRequest `json:"details" validate:"required,min=1,dive"`
}

func toDetailInputs(details []formulaDetailRequest) ([]formulas.DetailInput, error) {
	inputs := make([]formulas.DetailInput, 0, len(details))
	for _, detail := range details {
		inventoryID, err := uuid.Parse(detail.InventoryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory_id")
		}
		inputs = append(inputs, formulas.DetailInput{
			InventoryID:      inventoryID,
			RequiredQuantity: detail.RequiredQuantity,
		})
	}
	return inputs, nil
}

// CreateFormula registers a recipe with its ingredient requirements.
func CreateFormula(svc formulas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "formulas service unavailable"))
			return
		}

		var req createFormulaRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		details, err := toDetailInputs(req.Details)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		formula, err := svc.Create(r.Context(), formulas.CreateInput{Name: req.Name, Details: details})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, formula)
	}
}

// GetFormula fetches a recipe with its ingredient lines.
func GetFormula(svc formulas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "formulas service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		formula, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, formula)
	}
}

// ListFormulas returns all recipes.
func ListFormulas(svc formulas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "formulas service unavailable"))
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

// SetFormulaDetails replaces a recipe's ingredient lines.
func SetFormulaDetails(svc formulas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "formulas service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setFormulaDetailsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		details, err := toDetailInputs(req.Details)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		formula, err := svc.SetDetails(r.Context(), id, details)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, formula)
	}
}

// DeleteFormula removes a recipe.
func DeleteFormula(svc formulas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "formulas service unavailable"))
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
