package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockBatch records one discrete stock receipt for an inventory item.
// Creating a batch increments the parent item's quantity; deleting it
// decrements by the same amount inside one transaction.
type StockBatch struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	InventoryID uuid.UUID  `gorm:"column:inventory_id;type:uuid;not null;index"`
	Quantity    int        `gorm:"not null"`
	Supplier    string     `gorm:"type:text"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	BatchNumber string     `gorm:"column:batch_number;type:text"`
	ReceivedAt  time.Time  `gorm:"column:received_at;not null"`
}

func (s *StockBatch) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
