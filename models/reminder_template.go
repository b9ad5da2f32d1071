package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReminderBirthday    = "birthday"
	ReminderAnniversary = "anniversary"
	ReminderAppointment = "appointment"
	ReminderWaitlist    = "waitlist"
)

type ReminderTemplate struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID  uuid.UUID `gorm:"type:uuid;index;not null" json:"salonId"`
	Type     string    `gorm:"type:varchar(20);not null" json:"type"`
	Message  string    `gorm:"type:text;not null" json:"message"`
	IsActive bool      `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *ReminderTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// DefaultReminderTemplates returns the templates every new salon starts with.
func DefaultReminderTemplates(salonID uuid.UUID) []ReminderTemplate {
	return []ReminderTemplate{
		{
			SalonID:  salonID,
			Type:     ReminderBirthday,
			Message:  "Hi [CustomerName], [SalonName] wishes you a very happy birthday! Enjoy 20% off on your next visit this month!",
			IsActive: true,
		},
		{
			SalonID:  salonID,
			Type:     ReminderAnniversary,
			Message:  "Hi [CustomerName], happy anniversary from [SalonName]! Thank you for being our valued customer. Here's 15% off your next service!",
			IsActive: true,
		},
		{
			SalonID:  salonID,
			Type:     ReminderAppointment,
			Message:  "Hi [CustomerName], this is a reminder of your appointment at [SalonName] on [AppointmentTime].",
			IsActive: true,
		},
		{
			SalonID:  salonID,
			Type:     ReminderWaitlist,
			Message:  "Hi [CustomerName], you're number [Position] in line at [SalonName]. Please head to the front desk.",
			IsActive: true,
		},
	}
}
