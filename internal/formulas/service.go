package formulas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/db/models"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines recipe management operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Formula, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Formula, error)
	List(ctx context.Context) ([]models.Formula, error)
	SetDetails(ctx context.Context, formulaID uuid.UUID, details []DetailInput) (*models.Formula, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	tx   txRunner
	repo Repository
}

// CreateInput captures a new formula and its ingredient lines.
type CreateInput struct {
	Name    string
	Details []DetailInput
}

// DetailInput is one ingredient requirement.
type DetailInput struct {
	InventoryID      uuid.UUID
	RequiredQuantity int
}

// NewService wires the formulas service.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("formulas repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func validateDetails(details []DetailInput) ([]models.FormulaDetail, error) {
	seen := make(map[uuid.UUID]struct{}, len(details))
	rows := make([]models.FormulaDetail, 0, len(details))
	for _, d := range details {
		if d.InventoryID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient inventory id is required")
		}
		if d.RequiredQuantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient quantity must be positive")
		}
		if _, dup := seen[d.InventoryID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "formula lists the same inventory item twice")
		}
		seen[d.InventoryID] = struct{}{}
		rows = append(rows, models.FormulaDetail{
			InventoryID:      d.InventoryID,
			RequiredQuantity: d.RequiredQuantity,
		})
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Formula, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "formula name is required")
	}
	rows, err := validateDetails(input.Details)
	if err != nil {
		return nil, err
	}

	formula := &models.Formula{Name: name}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, formula); err != nil {
			return err
		}
		for i := range rows {
			rows[i].FormulaID = formula.ID
		}
		return repo.ReplaceDetails(ctx, formula.ID, rows)
	})
	if err != nil {
		return nil, err
	}
	formula.Details = rows
	return formula, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Formula, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "formula id is required")
	}
	formula, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "formula not found")
		}
		return nil, err
	}
	return formula, nil
}

func (s *service) List(ctx context.Context) ([]models.Formula, error) {
	return s.repo.List(ctx)
}

func (s *service) SetDetails(ctx context.Context, formulaID uuid.UUID, details []DetailInput) (*models.Formula, error) {
	if _, err := s.Get(ctx, formulaID); err != nil {
		return nil, err
	}
	rows, err := validateDetails(details)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].FormulaID = formulaID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceDetails(ctx, formulaID, rows)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, formulaID)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
