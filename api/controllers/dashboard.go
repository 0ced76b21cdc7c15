package controllers

import (
	"net/http"

	"github.com/thedilution/dilution-backend/api/responses"
	"github.com/thedilution/dilution-backend/internal/dashboard"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

// DashboardSummary returns the operational counters for the landing page.
func DashboardSummary(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
