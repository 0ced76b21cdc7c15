package controllers

import (
	"net/http"
	"time"

	"github.com/thedilution/dilution-backend/api/responses"
	"github.com/thedilution/dilution-backend/api/validators"
	"github.com/thedilution/dilution-backend/internal/hardware"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

type createHardwareRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=500"`
}

type createHardwareLogRequest struct {
	SensorType  string   `json:"sensor_type" validate:"required,max=50"`
	SensorValue *float64 `json:"sensor_value" validate:"required"`
	UnitMeasure string   `json:"unit_measure" validate:"required,max=10"`
	AnomalyFlag bool     `json:"anomaly_flag"`
}

type updateHardwareRequest struct {
	Name                *string `json:"name" validate:"omitempty,max=255"`
	Description         *string `json:"description" validate:"omitempty,max=500"`
	Online              *bool   `json:"online"`
	LastMaintenanceDate *string `json:"last_maintenance_date" validate:"omitempty,datetime=2006-01-02"`
}

// CreateHardware registers a dispensing machine.
func CreateHardware(svc hardware.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hardware service unavailable"))
			return
		}

		var req createHardwareRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		machine, err := svc.Create(r.Context(), hardware.CreateInput{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, machine)
	}
}

// GetHardware fetches one machine.
func GetHardware(svc hardware.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hardware service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		machine, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, machine)
	}
}

// ListHardware returns all registered machines.
func ListHardware(svc hardware.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hardware service unavailable"))
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

// UpdateHardware mutates machine metadata and status.
func UpdateHardware(svc hardware.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hardware service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateHardwareRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := hardware.UpdateInput{
			Name:        req.Name,
			Description: req.Description,
			Online:      req.Online,
		}
		if req.LastMaintenanceDate != nil {
			date, parseErr := time.Parse("2006-01-02", *req.LastMaintenanceDate)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid last_maintenance_date"))
				return
			}
			input.LastMaintenanceDate = &date
		}

		machine, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, machine)
	}
}

// DeleteHardware removes a machine from the registry.
func DeleteHardware(svc hardware.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hardware service unavailable"))
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

// CreateHardwareLog records a sensor reading for a machine.
func CreateHardwareLog(svc hardware.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hardware service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createHardwareLogRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.RecordLog(r.Context(), hardware.LogInput{
			HardwareID:  id,
			SensorType:  req.SensorType,
			SensorValue: *req.SensorValue,
			UnitMeasure: req.UnitMeasure,
			AnomalyFlag: req.AnomalyFlag,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// ListHardwareLogs returns sensor readings across all machines.
func ListHardwareLogs(svc hardware.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hardware service unavailable"))
			return
		}

		logs, err := svc.ListLogs(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, logs)
	}
}

// ListHardwareLogsByMachine returns sensor readings for one machine.
func ListHardwareLogsByMachine(svc hardware.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hardware service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		logs, err := svc.ListLogsForHardware(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, logs)
	}
}
