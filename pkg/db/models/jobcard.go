package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/enums"
)

// Jobcard is the unit of dilution workflow: one prescription-fulfillment
// request, moved through its lifecycle only by the jobcards service.
type Jobcard struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	DilutionID     uuid.UUID           `gorm:"column:dilution_id;type:uuid;not null"`
	PrescriptionID uuid.UUID           `gorm:"column:prescription_id;type:uuid;not null"`
	RequesterID    uuid.UUID           `gorm:"column:requester_id;type:uuid;not null"`
	ApproverID     *uuid.UUID          `gorm:"column:approver_id;type:uuid"`
	HardwareID     *uuid.UUID          `gorm:"column:hardware_id;type:uuid"`
	Quantity       int                 `gorm:"not null"`
	EmergencyLevel int                 `gorm:"column:emergency_level;not null;default:0"`
	Status         enums.JobcardStatus `gorm:"type:text;not null"`
	RequestDate    time.Time           `gorm:"column:request_date;not null"`
	ApproveDate    *time.Time          `gorm:"column:approve_date"`
	RobotTaskID    *string             `gorm:"column:robot_task_id;type:text"`

	Dilution     *Dilution           `gorm:"foreignKey:DilutionID"`
	Prescription *PrescriptionDetail `gorm:"foreignKey:PrescriptionID"`
	Requester    *User               `gorm:"foreignKey:RequesterID"`
	Approver     *User               `gorm:"foreignKey:ApproverID"`
}

func (j *Jobcard) BeforeCreate(*gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
