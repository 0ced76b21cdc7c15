package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HardwareLog is one sensor reading reported by a dispensing machine.
// Readings are append-only; the timestamp is set server-side at ingest.
type HardwareLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	HardwareID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Timestamp   time.Time `gorm:"column:timestamp;not null"`
	SensorType  string    `gorm:"type:text;not null"`
	SensorValue float64   `gorm:"not null"`
	UnitMeasure string    `gorm:"type:text;not null"`
	AnomalyFlag bool      `gorm:"not null;default:false"`

	Hardware *Hardware `gorm:"foreignKey:HardwareID"`
}

func (l *HardwareLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
