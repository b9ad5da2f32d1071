package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity type tags written to a client's timeline.
const (
	ActivityAppointmentBooked    = "appointment_booked"
	ActivityAppointmentCheckedIn = "appointment_checked_in"
	ActivityAppointmentCompleted = "appointment_completed"
	ActivityAppointmentCancelled = "appointment_cancelled"
	ActivityAppointmentNoShow    = "appointment_no_show"
	ActivityWaitlistJoined       = "waitlist_joined"
	ActivityWaitlistSeated       = "waitlist_seated"
	ActivityWaitlistLeft         = "waitlist_left"
)

// Activity is an append-only history entry. Rows are never updated.
type Activity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID     uuid.UUID `gorm:"type:uuid;index;not null" json:"salonId"`
	CustomerID  uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`
	Type        string    `gorm:"type:varchar(50);not null" json:"type"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Metadata    JSONB     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
