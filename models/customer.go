package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID         uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_salon_phone,priority:1" json:"salonId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`

	Name        string     `gorm:"not null" json:"name"`
	Phone       string     `gorm:"not null;uniqueIndex:idx_salon_phone,priority:2" json:"phone"`
	Email       string     `json:"email"`
	Birthday    *time.Time `json:"birthday,omitempty"`
	Anniversary *time.Time `json:"anniversary,omitempty"`
	Notes       string     `json:"notes"`
	TotalVisits int        `gorm:"default:0" json:"totalVisits"`
	LastVisit   *time.Time `json:"lastVisit,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
