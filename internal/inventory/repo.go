package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thedilution/dilution-backend/pkg/db/models"
)

// Repository manages persistence for inventory items and stock batches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.InventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	List(ctx context.Context) ([]models.InventoryItem, error)
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (bool, error)
	CreateBatch(ctx context.Context, batch *models.StockBatch) error
	FindBatchByID(ctx context.Context, id uuid.UUID) (*models.StockBatch, error)
	ListBatches(ctx context.Context, inventoryID uuid.UUID) ([]models.StockBatch, error)
	DeleteBatch(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetForUpdate loads the row under SELECT ... FOR UPDATE so concurrent
// deductions serialize on the item.
func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.InventoryItem{}, "id = ?", id).Error
}

// AdjustQuantity applies a signed delta and refuses to drive the aggregate
// negative. Returns false when the guard rejected the update.
func (r *repository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CreateBatch(ctx context.Context, batch *models.StockBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *repository) FindBatchByID(ctx context.Context, id uuid.UUID) (*models.StockBatch, error) {
	var batch models.StockBatch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) ListBatches(ctx context.Context, inventoryID uuid.UUID) ([]models.StockBatch, error) {
	var batches []models.StockBatch
	if err := r.db.WithContext(ctx).
		Where("inventory_id = ?", inventoryID).
		Order("received_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repository) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.StockBatch{}, "id = ?", id).Error
}
