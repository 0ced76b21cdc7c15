package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PrescriptionDetail is the patient context for a jobcard; one-to-one and
// cascade-deleted with it.
type PrescriptionDetail struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Age       int       `gorm:"not null"`
	Weight    float64   `gorm:"not null"`
	Allergies string    `gorm:"type:text"`
}

func (p *PrescriptionDetail) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
