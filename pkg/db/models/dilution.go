package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dilution names a formula-backed preparation recipe requested by jobcards.
type Dilution struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	Purpose   string    `gorm:"type:text"`
	FormulaID uuid.UUID `gorm:"column:formula_id;type:uuid;not null"`
	Formula   *Formula  `gorm:"foreignKey:FormulaID"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Dilution) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
