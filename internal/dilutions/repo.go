package dilutions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/db/models"
)

// Repository manages persistence for dilutions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dilution *models.Dilution) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dilution, error)
	List(ctx context.Context) ([]models.Dilution, error)
	Update(ctx context.Context, dilution *models.Dilution) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dilutions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, dilution *models.Dilution) error {
	return r.db.WithContext(ctx).Create(dilution).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dilution, error) {
	var dilution models.Dilution
	if err := r.db.WithContext(ctx).
		Preload("Formula").
		Preload("Formula.Details").
		Preload("Formula.Details.Inventory").
		First(&dilution, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dilution, nil
}

func (r *repository) List(ctx context.Context) ([]models.Dilution, error) {
	var dilutions []models.Dilution
	if err := r.db.WithContext(ctx).
		Preload("Formula").
		Order("name ASC").
		Find(&dilutions).Error; err != nil {
		return nil, err
	}
	return dilutions, nil
}

func (r *repository) Update(ctx context.Context, dilution *models.Dilution) error {
	return r.db.WithContext(ctx).Save(dilution).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Dilution{}, "id = ?", id).Error
}
