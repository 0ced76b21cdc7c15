package hardware

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/db/models"
)

// Repository manages persistence for dispensing machines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, hw *models.Hardware) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Hardware, error)
	List(ctx context.Context) ([]models.Hardware, error)
	Update(ctx context.Context, hw *models.Hardware) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateLog(ctx context.Context, log *models.HardwareLog) error
	ListLogs(ctx context.Context) ([]models.HardwareLog, error)
	ListLogsByHardware(ctx context.Context, hardwareID uuid.UUID) ([]models.HardwareLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a hardware repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, hw *models.Hardware) error {
	return r.db.WithContext(ctx).Create(hw).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Hardware, error) {
	var hw models.Hardware
	if err := r.db.WithContext(ctx).First(&hw, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &hw, nil
}

func (r *repository) List(ctx context.Context) ([]models.Hardware, error) {
	var machines []models.Hardware
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

func (r *repository) Update(ctx context.Context, hw *models.Hardware) error {
	return r.db.WithContext(ctx).Save(hw).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Hardware{}, "id = ?", id).Error
}

func (r *repository) CreateLog(ctx context.Context, log *models.HardwareLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) ListLogs(ctx context.Context) ([]models.HardwareLog, error) {
	var logs []models.HardwareLog
	if err := r.db.WithContext(ctx).Order("timestamp DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repository) ListLogsByHardware(ctx context.Context, hardwareID uuid.UUID) ([]models.HardwareLog, error) {
	var logs []models.HardwareLog
	if err := r.db.WithContext(ctx).
		Where("hardware_id = ?", hardwareID).
		Order("timestamp DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
