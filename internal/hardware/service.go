package hardware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/db/models"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

// Service defines dispensing machine registry operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Hardware, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Hardware, error)
	List(ctx context.Context) ([]models.Hardware, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Hardware, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordLog(ctx context.Context, input LogInput) (*models.HardwareLog, error)
	ListLogs(ctx context.Context) ([]models.HardwareLog, error)
	ListLogsForHardware(ctx context.Context, hardwareID uuid.UUID) ([]models.HardwareLog, error)
}

type service struct {
	repo Repository
}

// CreateInput captures a new machine registration.
type CreateInput struct {
	Name        string
	Description string
}

// LogInput is one sensor reading to record against a machine.
type LogInput struct {
	HardwareID  uuid.UUID
	SensorType  string
	SensorValue float64
	UnitMeasure string
	AnomalyFlag bool
}

// UpdateInput carries optional machine mutations; nil fields are untouched.
type UpdateInput struct {
	Name                *string
	Description         *string
	Online              *bool
	LastMaintenanceDate *time.Time
}

// NewService wires the hardware service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("hardware repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Hardware, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hardware name is required")
	}
	hw := &models.Hardware{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.repo.Create(ctx, hw); err != nil {
		return nil, err
	}
	return hw, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Hardware, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hardware id is required")
	}
	hw, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hardware not found")
		}
		return nil, err
	}
	return hw, nil
}

func (s *service) List(ctx context.Context) ([]models.Hardware, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Hardware, error) {
	hw, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "hardware name cannot be empty")
		}
		hw.Name = name
	}
	if input.Description != nil {
		hw.Description = strings.TrimSpace(*input.Description)
	}
	if input.Online != nil {
		hw.Online = *input.Online
	}
	if input.LastMaintenanceDate != nil {
		hw.LastMaintenanceDate = input.LastMaintenanceDate
	}

	if err := s.repo.Update(ctx, hw); err != nil {
		return nil, err
	}
	return hw, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// RecordLog persists a sensor reading, stamping it server-side so machine
// clocks never skew the audit trail.
func (s *service) RecordLog(ctx context.Context, input LogInput) (*models.HardwareLog, error) {
	if input.HardwareID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hardware id is required")
	}
	sensorType := strings.TrimSpace(input.SensorType)
	if sensorType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sensor type is required")
	}
	unit := strings.TrimSpace(input.UnitMeasure)
	if unit == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit of measure is required")
	}
	if _, err := s.Get(ctx, input.HardwareID); err != nil {
		return nil, err
	}

	log := &models.HardwareLog{
		HardwareID:  input.HardwareID,
		Timestamp:   time.Now().UTC(),
		SensorType:  sensorType,
		SensorValue: input.SensorValue,
		UnitMeasure: unit,
		AnomalyFlag: input.AnomalyFlag,
	}
	if err := s.repo.CreateLog(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *service) ListLogs(ctx context.Context) ([]models.HardwareLog, error) {
	return s.repo.ListLogs(ctx)
}

func (s *service) ListLogsForHardware(ctx context.Context, hardwareID uuid.UUID) ([]models.HardwareLog, error) {
	if hardwareID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hardware id is required")
	}
	if _, err := s.Get(ctx, hardwareID); err != nil {
		return nil, err
	}
	return s.repo.ListLogsByHardware(ctx, hardwareID)
}
