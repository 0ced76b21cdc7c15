package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Consumption is the immutable audit record of ingredient usage. Exactly one
// row is written per ingredient of a successful approval.
type Consumption struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	InventoryID  uuid.UUID `gorm:"column:inventory_id;type:uuid;not null;index"`
	JobcardID    uuid.UUID `gorm:"column:jobcard_id;type:uuid;not null;index"`
	FormulaID    uuid.UUID `gorm:"column:formula_id;type:uuid;not null"`
	QuantityUsed int       `gorm:"column:quantity_used;not null"`
	ConsumedAt   time.Time `gorm:"column:consumed_at;not null"`
}

func (c *Consumption) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
