package formulas

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thedilution/dilution-backend/pkg/db/models"
)

// Repository manages persistence for formulas and their ingredient lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, formula *models.Formula) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Formula, error)
	List(ctx context.Context) ([]models.Formula, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceDetails(ctx context.Context, formulaID uuid.UUID, details []models.FormulaDetail) error
	LoadRecipeForUpdate(ctx context.Context, formulaID uuid.UUID) ([]models.FormulaDetail, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a formulas repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, formula *models.Formula) error {
	return r.db.WithContext(ctx).Create(formula).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Formula, error) {
	var formula models.Formula
	if err := r.db.WithContext(ctx).
		Preload("Details").
		Preload("Details.Inventory").
		First(&formula, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &formula, nil
}

func (r *repository) List(ctx context.Context) ([]models.Formula, error) {
	var formulas []models.Formula
	if err := r.db.WithContext(ctx).
		Preload("Details").
		Order("created_at DESC").
		Find(&formulas).Error; err != nil {
		return nil, err
	}
	return formulas, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Formula{}, "id = ?", id).Error
}

// ReplaceDetails swaps the full ingredient list in place.
func (r *repository) ReplaceDetails(ctx context.Context, formulaID uuid.UUID, details []models.FormulaDetail) error {
	if err := r.db.WithContext(ctx).
		Where("formula_id = ?", formulaID).
		Delete(&models.FormulaDetail{}).Error; err != nil {
		return err
	}
	if len(details) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&details).Error
}

// LoadRecipeForUpdate returns the ingredient lines with their inventory rows
// locked, ordered by inventory id so concurrent approvals acquire locks in a
// stable order.
func (r *repository) LoadRecipeForUpdate(ctx context.Context, formulaID uuid.UUID) ([]models.FormulaDetail, error) {
	var details []models.FormulaDetail
	if err := r.db.WithContext(ctx).
		Where("formula_id = ?", formulaID).
		Order("inventory_id ASC").
		Find(&details).Error; err != nil {
		return nil, err
	}

	for i := range details {
		var item models.InventoryItem
		if err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&item, "id = ?", details[i].InventoryID).Error; err != nil {
			return nil, err
		}
		details[i].Inventory = &item
	}
	return details, nil
}
