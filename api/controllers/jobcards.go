package controllers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/thedilution/dilution-backend/api/middleware"
	"github.com/thedilution/dilution-backend/api/responses"
	"github.com/thedilution/dilution-backend/api/validators"
	"github.com/thedilution/dilution-backend/internal/jobcards"
	"github.com/thedilution/dilution-backend/pkg/enums"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/logger"
	"github.com/thedilution/dilution-backend/pkg/pagination"
)

type prescriptionRequest struct {
	Age       int     `json:"age" validate:"required,gte=0,lte=150"`
	Weight    float64 `json:"weight" validate:"required,gt=0"`
	Allergies string  `json:"allergies"`
}

type createJobcardRequest struct {
	DilutionID     string              `json:"dilution_id" validate:"required,uuid4"`
	HardwareID     *string             `json:"hardware_id" validate:"omitempty,uuid4"`
	Quantity       int                 `json:"quantity" validate:"required,gt=0"`
	EmergencyLevel int                 `json:"emergency_level" validate:"gte=0,lte=3"`
	Prescription   prescriptionRequest `json:"prescription" validate:"required"`
}

func (req *createJobcardRequest) toInput(requesterID uuid.UUID) (jobcards.CreateInput, error) {
	dilutionID, err := uuid.Parse(req.DilutionID)
	if err != nil {
		return jobcards.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dilution_id")
	}

	input := jobcards.CreateInput{
		DilutionID:     dilutionID,
		RequesterID:    requesterID,
		Quantity:       req.Quantity,
		EmergencyLevel: req.EmergencyLevel,
		Prescription: jobcards.PrescriptionInput{
			Age:       req.Prescription.Age,
			Weight:    req.Prescription.Weight,
			Allergies: req.Prescription.Allergies,
		},
	}
	if req.HardwareID != nil {
		hardwareID, parseErr := uuid.Parse(*req.HardwareID)
		if parseErr != nil {
			return jobcards.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid hardware_id")
		}
		input.HardwareID = &hardwareID
	}
	return input, nil
}

type updateJobcardRequest struct {
	Quantity       *int    `json:"quantity" validate:"omitempty,gt=0"`
	EmergencyLevel *int    `json:"emergency_level" validate:"omitempty,gte=0,lte=3"`
	HardwareID     *string `json:"hardware_id" validate:"omitempty,uuid4"`
	Status         *string `json:"status" validate:"omitempty"`
}

type rejectJobcardRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type executeJobcardRequest struct {
	HardwareID *string `json:"hardware_id" validate:"omitempty,uuid4"`
}

// CreateJobcard registers a dilution request with its prescription.
func CreateJobcard(svc jobcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobcards service unavailable"))
			return
		}

		requesterID, err := actorID(r, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createJobcardRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput(requesterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobcard, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, jobcard)
	}
}

// GetJobcard fetches a single jobcard with its associations.
func GetJobcard(svc jobcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobcards service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobcard, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobcard)
	}
}

// ListJobcards returns jobcards, optionally filtered by status or requester.
func ListJobcards(svc jobcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobcards service unavailable"))
			return
		}

		var filter jobcards.Filter
		query := r.URL.Query()
		if raw := query.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			filter.Limit = limit
		}
		if raw := query.Get("cursor"); raw != "" {
			cursor, err := pagination.ParseCursor(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			filter.Cursor = cursor
		}
		if raw := query.Get("status"); raw != "" {
			status, err := enums.ParseJobcardStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		if raw := query.Get("requester_id"); raw != "" {
			requesterID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid requester_id filter"))
				return
			}
			filter.RequesterID = &requesterID
		}

		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ApproveJobcard deducts stock, triggers the dispensing robot, and moves the
// card to approved. The whole operation is atomic.
func ApproveJobcard(svc jobcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobcards service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		approverID, err := actorID(r, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobcard, err := svc.Approve(r.Context(), id, approverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobcard)
	}
}

// RejectJobcard declines a requested card without touching stock.
func RejectJobcard(svc jobcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobcards service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		approverID, err := actorID(r, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req rejectJobcardRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobcard, err := svc.Reject(r.Context(), id, approverID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobcard)
	}
}

// ExecuteJobcard moves an approved card to processing.
func ExecuteJobcard(svc jobcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobcards service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req executeJobcardRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var hardwareID *uuid.UUID
		if req.HardwareID != nil {
			parsed, parseErr := uuid.Parse(*req.HardwareID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid hardware_id"))
				return
			}
			hardwareID = &parsed
		}

		jobcard, err := svc.Execute(r.Context(), id, hardwareID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobcard)
	}
}

// CompleteJobcard moves a processing card to completed.
func CompleteJobcard(svc jobcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobcards service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobcard, err := svc.Complete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobcard)
	}
}

// UpdateJobcard mutates a card that is still in the requested state.
func UpdateJobcard(svc jobcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobcards service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorID(r, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateJobcardRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := jobcards.UpdateInput{
			Quantity:       req.Quantity,
			EmergencyLevel: req.EmergencyLevel,
		}
		if req.HardwareID != nil {
			parsed, parseErr := uuid.Parse(*req.HardwareID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid hardware_id"))
				return
			}
			input.HardwareID = &parsed
		}
		if req.Status != nil {
			status, parseErr := enums.ParseJobcardStatus(*req.Status)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
				return
			}
			input.Status = &status
		}

		jobcard, err := svc.Update(r.Context(), id, actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobcard)
	}
}

// DeleteJobcard removes a card and its prescription row.
func DeleteJobcard(svc jobcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobcards service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Destroy(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"deleted": id.String()})
	}
}
