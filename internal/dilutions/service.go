package dilutions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/internal/formulas"
	"github.com/thedilution/dilution-backend/pkg/db/models"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

// Service defines dilution catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Dilution, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Dilution, error)
	List(ctx context.Context) ([]models.Dilution, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Dilution, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo       Repository
	formulaSvc formulas.Service
}

// CreateInput captures a new dilution definition.
type CreateInput struct {
	Name      string
	Purpose   string
	FormulaID uuid.UUID
}

// UpdateInput carries optional dilution mutations; nil fields are untouched.
type UpdateInput struct {
	Name      *string
	Purpose   *string
	FormulaID *uuid.UUID
}

// NewService wires the dilutions service.
func NewService(repo Repository, formulaSvc formulas.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dilutions repository required")
	}
	if formulaSvc == nil {
		return nil, fmt.Errorf("formulas service required")
	}
	return &service{repo: repo, formulaSvc: formulaSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Dilution, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dilution name is required")
	}
	if input.FormulaID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "formula id is required")
	}
	if _, err := s.formulaSvc.Get(ctx, input.FormulaID); err != nil {
		return nil, err
	}

	dilution := &models.Dilution{
		Name:      name,
		Purpose:   strings.TrimSpace(input.Purpose),
		FormulaID: input.FormulaID,
	}
	if err := s.repo.Create(ctx, dilution); err != nil {
		return nil, err
	}
	return dilution, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Dilution, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dilution id is required")
	}
	dilution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dilution not found")
		}
		return nil, err
	}
	return dilution, nil
}

func (s *service) List(ctx context.Context) ([]models.Dilution, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Dilution, error) {
	dilution, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "dilution name cannot be empty")
		}
		dilution.Name = name
	}
	if input.Purpose != nil {
		dilution.Purpose = strings.TrimSpace(*input.Purpose)
	}
	if input.FormulaID != nil {
		if _, err := s.formulaSvc.Get(ctx, *input.FormulaID); err != nil {
			return nil, err
		}
		dilution.FormulaID = *input.FormulaID
	}

	// Save would cascade into preloaded associations; persist scalars only.
	dilution.Formula = nil
	if err := s.repo.Update(ctx, dilution); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
