package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hardware is a dispensing machine a jobcard may be assigned to.
type Hardware struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name                string     `gorm:"type:text;not null"`
	Description         string     `gorm:"type:text"`
	Online              bool       `gorm:"not null;default:false"`
	LastMaintenanceDate *time.Time `gorm:"column:last_maintenance_date"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (h *Hardware) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
