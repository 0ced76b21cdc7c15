package jobcards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thedilution/dilution-backend/pkg/db/models"
	"github.com/thedilution/dilution-backend/pkg/enums"
	"github.com/thedilution/dilution-backend/pkg/pagination"
)

// Filter narrows jobcard listings. Limit and Cursor implement keyset
// pagination over (request_date, id) descending.
type Filter struct {
	Status      *enums.JobcardStatus
	RequesterID *uuid.UUID
	Limit       int
	Cursor      *pagination.Cursor
}

// Repository manages persistence for jobcards and their prescription rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, jobcard *models.Jobcard) error
	CreatePrescription(ctx context.Context, prescription *models.PrescriptionDetail) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Jobcard, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Jobcard, error)
	List(ctx context.Context, filter Filter) ([]models.Jobcard, error)
	Update(ctx context.Context, jobcard *models.Jobcard) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeletePrescription(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a jobcards repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, jobcard *models.Jobcard) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(jobcard).Error
}

func (r *repository) CreatePrescription(ctx context.Context, prescription *models.PrescriptionDetail) error {
	return r.db.WithContext(ctx).Create(prescription).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Jobcard, error) {
	var jobcard models.Jobcard
	if err := r.db.WithContext(ctx).
		Preload("Dilution").
		Preload("Prescription").
		Preload("Requester").
		Preload("Approver").
		First(&jobcard, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &jobcard, nil
}

// GetForUpdate loads the bare jobcard row under SELECT ... FOR UPDATE so
// concurrent approvals of the same card serialize.
func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Jobcard, error) {
	var jobcard models.Jobcard
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&jobcard, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &jobcard, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]models.Jobcard, error) {
	query := r.db.WithContext(ctx).
		Preload("Dilution").
		Preload("Prescription").
		Preload("Requester").
		Preload("Approver")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(request_date < ?) OR (request_date = ? AND id < ?)",
			filter.Cursor.RequestedAt, filter.Cursor.RequestedAt, filter.Cursor.ID,
		)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var jobcards []models.Jobcard
	if err := query.Order("request_date DESC, id DESC").Find(&jobcards).Error; err != nil {
		return nil, err
	}
	return jobcards, nil
}

func (r *repository) Update(ctx context.Context, jobcard *models.Jobcard) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(jobcard).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Jobcard{}, "id = ?", id).Error
}

func (r *repository) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PrescriptionDetail{}, "id = ?", id).Error
}
