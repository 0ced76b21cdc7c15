package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Formula is a recipe owning a set of per-ingredient requirements.
type Formula struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name      string          `gorm:"type:text;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	Details   []FormulaDetail `gorm:"foreignKey:FormulaID"`
}

func (f *Formula) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
