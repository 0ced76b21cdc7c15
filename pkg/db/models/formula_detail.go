package models

import (
	"github.com/google/uuid"
)

// FormulaDetail is one ingredient line of a formula. A formula lists each
// inventory item at most once.
type FormulaDetail struct {
	FormulaID        uuid.UUID      `gorm:"column:formula_id;type:uuid;primaryKey"`
	InventoryID      uuid.UUID      `gorm:"column:inventory_id;type:uuid;primaryKey"`
	RequiredQuantity int            `gorm:"column:required_quantity;not null"`
	Inventory        *InventoryItem `gorm:"foreignKey:InventoryID"`
}
