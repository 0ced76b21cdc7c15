package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/thedilution/dilution-backend/api/responses"
	"github.com/thedilution/dilution-backend/internal/consumption"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

// ListConsumption returns audit records filtered by item, jobcard, or window.
func ListConsumption(svc consumption.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "consumption service unavailable"))
			return
		}

		var filter consumption.Filter
		query := r.URL.Query()
		if raw := query.Get("inventory_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory_id filter"))
				return
			}
			filter.InventoryID = &id
		}
		if raw := query.Get("jobcard_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid jobcard_id filter"))
				return
			}
			filter.JobcardID = &id
		}
		if raw := query.Get("from"); raw != "" {
			from, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from filter"))
				return
			}
			filter.From = &from
		}
		if raw := query.Get("to"); raw != "" {
			to, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to filter"))
				return
			}
			filter.To = &to
		}

		records, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}
