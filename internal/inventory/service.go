package inventory

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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines inventory master-data and stock-ledger operations.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context) ([]models.InventoryItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	AddStock(ctx context.Context, input AddStockInput) (*models.StockBatch, error)
	ListBatches(ctx context.Context, inventoryID uuid.UUID) ([]models.StockBatch, error)
	RemoveBatch(ctx context.Context, batchID uuid.UUID) error
}

type service struct {
	tx   txRunner
	repo Repository
}

// CreateItemInput captures the fields needed to register an inventory item.
type CreateItemInput struct {
	Name         string
	Unit         string
	Quantity     int
	HardwarePort *string
	OwnerUserID  *uuid.UUID
}

// UpdateItemInput carries optional item mutations; nil fields are untouched.
type UpdateItemInput struct {
	Name         *string
	Unit         *string
	HardwarePort *string
	Status       *string
}

// AddStockInput records one stock receipt against an item.
type AddStockInput struct {
	InventoryID uuid.UUID
	Quantity    int
	Supplier    string
	BatchNumber string
	ExpiresAt   *time.Time
}

// NewService wires the inventory service with its dependencies.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial quantity cannot be negative")
	}

	item := &models.InventoryItem{
		Name:         name,
		Unit:         strings.TrimSpace(input.Unit),
		Quantity:     input.Quantity,
		HardwarePort: input.HardwarePort,
		OwnerUserID:  input.OwnerUserID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, err
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.InventoryItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name cannot be empty")
		}
		item.Name = name
	}
	if input.Unit != nil {
		item.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.HardwarePort != nil {
		item.HardwarePort = input.HardwarePort
	}
	if input.Status != nil {
		item.Status = *input.Status
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetItem(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AddStock writes the batch row and increments the aggregate inside one
// transaction so the two can never diverge.
func (s *service) AddStock(ctx context.Context, input AddStockInput) (*models.StockBatch, error) {
	if input.InventoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch quantity must be positive")
	}

	batch := &models.StockBatch{
		InventoryID: input.InventoryID,
		Quantity:    input.Quantity,
		Supplier:    strings.TrimSpace(input.Supplier),
		BatchNumber: strings.TrimSpace(input.BatchNumber),
		ExpiresAt:   input.ExpiresAt,
		ReceivedAt:  time.Now().UTC(),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.GetForUpdate(ctx, input.InventoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
			}
			return err
		}
		if err := repo.CreateBatch(ctx, batch); err != nil {
			return err
		}
		ok, err := repo.AdjustQuantity(ctx, input.InventoryID, input.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvariant, "stock increment rejected")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *service) ListBatches(ctx context.Context, inventoryID uuid.UUID) ([]models.StockBatch, error) {
	if inventoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory id is required")
	}
	return s.repo.ListBatches(ctx, inventoryID)
}

// RemoveBatch deletes a batch and decrements the aggregate by the batch
// quantity. Fails without changes when that would drive stock negative.
func (s *service) RemoveBatch(ctx context.Context, batchID uuid.UUID) error {
	if batchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "batch id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		batch, err := repo.FindBatchByID(ctx, batchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock batch not found")
			}
			return err
		}
		if _, err := repo.GetForUpdate(ctx, batch.InventoryID); err != nil {
			return err
		}
		if err := repo.DeleteBatch(ctx, batchID); err != nil {
			return err
		}
		ok, err := repo.AdjustQuantity(ctx, batch.InventoryID, -batch.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "removing batch would drive stock negative")
		}
		return nil
	})
}
