package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItem is the master record for a trackable supply item. Quantity is
// the aggregate across stock batches and must never go negative.
type InventoryItem struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerUserID  *uuid.UUID `gorm:"column:owner_user_id;type:uuid"`
	Name         string     `gorm:"type:text;not null"`
	Unit         string     `gorm:"type:text"`
	Quantity     int        `gorm:"not null;default:0"`
	HardwarePort *string    `gorm:"column:hardware_port;type:text"`
	Status       string     `gorm:"type:text"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
