package consumption

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/db/models"
)

// Filter narrows consumption queries.
type Filter struct {
	InventoryID *uuid.UUID
	JobcardID   *uuid.UUID
	From        *time.Time
	To          *time.Time
}

// Repository manages the append-only consumption audit trail. There are no
// update or delete operations on purpose.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.Consumption) error
	List(ctx context.Context, filter Filter) ([]models.Consumption, error)
	TotalUsedSince(ctx context.Context, since time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a consumption repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.Consumption) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) List(ctx context.Context, filter Filter) ([]models.Consumption, error) {
	query := r.db.WithContext(ctx).Model(&models.Consumption{})
	if filter.InventoryID != nil {
		query = query.Where("inventory_id = ?", *filter.InventoryID)
	}
	if filter.JobcardID != nil {
		query = query.Where("jobcard_id = ?", *filter.JobcardID)
	}
	if filter.From != nil {
		query = query.Where("consumed_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("consumed_at < ?", *filter.To)
	}

	var records []models.Consumption
	if err := query.Order("consumed_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) TotalUsedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Consumption{}).
		Where("consumed_at >= ?", since).
		Select("COALESCE(SUM(quantity_used), 0)").
		Scan(&total).Error
	return total, err
}
