package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users.
type Notification struct {
	ID         uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index"`
	JobcardID  uuid.UUID                  `gorm:"column:jobcard_id;type:uuid;not null"`
	SourceType string                     `gorm:"column:source_type;type:text;not null"`
	Message    string                     `gorm:"type:text;not null"`
	Severity   enums.NotificationSeverity `gorm:"type:text;not null"`
	ReadAt     *time.Time                 `gorm:"column:read_at"`
	CreatedAt  time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
