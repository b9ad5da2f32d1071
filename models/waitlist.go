package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WaitlistStatus string

const (
	WaitlistWaiting  WaitlistStatus = "WAITING"
	WaitlistNotified WaitlistStatus = "NOTIFIED"
	WaitlistSeated   WaitlistStatus = "SEATED"
	WaitlistLeft     WaitlistStatus = "LEFT"
)

// ActiveWaitlistStatuses are the statuses that hold a place in the queue.
var ActiveWaitlistStatuses = []WaitlistStatus{WaitlistWaiting, WaitlistNotified}

func (s WaitlistStatus) Valid() bool {
	switch s {
	case WaitlistWaiting, WaitlistNotified, WaitlistSeated, WaitlistLeft:
		return true
	}
	return false
}

func (s WaitlistStatus) Active() bool {
	return s == WaitlistWaiting || s == WaitlistNotified
}

// CanTransitionTo reports whether an entry in status s may move to next.
// Repeating the current status is always allowed.
func (s WaitlistStatus) CanTransitionTo(next WaitlistStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case WaitlistWaiting:
		return next == WaitlistNotified || next == WaitlistSeated || next == WaitlistLeft
	case WaitlistNotified:
		return next == WaitlistSeated || next == WaitlistLeft
	}
	return false
}

type WaitlistEntry struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	LocationID uuid.UUID  `gorm:"type:uuid;index:idx_waitlist_location_position,priority:1;not null" json:"locationId"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customerId,omitempty"`
	ServiceID  *uuid.UUID `gorm:"type:uuid" json:"serviceId,omitempty"`

	// Walk-in contact details when the guest has no customer record.
	GuestName  string `json:"guestName"`
	GuestPhone string `json:"guestPhone"`

	PartySize     int            `gorm:"default:1" json:"partySize"`
	Status        WaitlistStatus `gorm:"type:varchar(20);index;not null;default:'WAITING'" json:"status"`
	Position      int            `gorm:"index:idx_waitlist_location_position,priority:2" json:"position"`
	EstimatedWait int            `json:"estimatedWait"` // minutes
	Notes         string         `gorm:"type:text" json:"notes"`

	NotifiedAt *time.Time `json:"notifiedAt,omitempty"`
	SeatedAt   *time.Time `json:"seatedAt,omitempty"`
	LeftAt     *time.Time `json:"leftAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (w *WaitlistEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.Status == "" {
		w.Status = WaitlistWaiting
	}
	return
}
