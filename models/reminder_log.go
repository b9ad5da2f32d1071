// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index" json:"customerId,omitempty"`
	TemplateID    *uuid.UUID `gorm:"type:uuid;index" json:"templateId,omitempty"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index" json:"appointmentId,omitempty"`
	WaitlistID    *uuid.UUID `gorm:"type:uuid;index" json:"waitlistId,omitempty"`
	Type          string     `gorm:"type:varchar(20)" json:"type"` // birthday, anniversary, appointment, waitlist
	Recipient     string     `gorm:"type:varchar(32)" json:"recipient"`
	Message       string     `gorm:"type:text" json:"message"`
	Status        string     `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage  string     `gorm:"type:text" json:"errorMessage,omitempty"`
	Channel       string     `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms
	ProviderID    string     `gorm:"type:varchar(64)" json:"providerId,omitempty"`
	SentAt        time.Time  `gorm:"index" json:"sentAt"`

	CreatedAt time.Time `json:"createdAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
