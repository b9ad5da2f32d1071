package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCheckedIn AppointmentStatus = "CHECKED_IN"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentNoShow    AppointmentStatus = "NO_SHOW"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentScheduled: {AppointmentCheckedIn, AppointmentCancelled, AppointmentNoShow},
	AppointmentCheckedIn: {AppointmentCompleted, AppointmentCancelled},
}

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCheckedIn, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions other than a repeat of themselves.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled || s == AppointmentNoShow
}

// CanTransitionTo reports whether an appointment in status s may move to next.
// Repeating the current status is always allowed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customerId,omitempty"`
	StaffID    *uuid.UUID `gorm:"type:uuid;index" json:"staffId,omitempty"`
	ServiceID  *uuid.UUID `gorm:"type:uuid;index" json:"serviceId,omitempty"`
	LocationID *uuid.UUID `gorm:"type:uuid;index" json:"locationId,omitempty"`

	ScheduledStart time.Time  `gorm:"index;not null" json:"scheduledStart"`
	ScheduledEnd   time.Time  `gorm:"not null" json:"scheduledEnd"`
	ActualStart    *time.Time `json:"actualStart,omitempty"`
	ActualEnd      *time.Time `json:"actualEnd,omitempty"`

	Status       AppointmentStatus `gorm:"type:varchar(20);index;not null;default:'SCHEDULED'" json:"status"`
	CheckedInAt  *time.Time        `json:"checkedInAt,omitempty"`
	CheckedOutAt *time.Time        `json:"checkedOutAt,omitempty"`

	Notes          string     `gorm:"type:text" json:"notes"`
	InternalNotes  string     `gorm:"type:text" json:"internalNotes"`
	ReminderSentAt *time.Time `json:"reminderSentAt,omitempty"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Service  *Service  `gorm:"foreignKey:ServiceID" json:"service,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}
	return
}
