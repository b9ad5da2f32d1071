package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultAppointmentLength = 60 * time.Minute

// AppointmentService owns the appointment lifecycle. Every transition is one
// transaction covering the status write, its side effects and the activity entry.
type AppointmentService struct {
	db         *gorm.DB
	activities *ActivityService
	events     EventPublisher
	log        zerolog.Logger
	now        func() time.Time
}

func NewAppointmentService(db *gorm.DB, activities *ActivityService, events EventPublisher, log zerolog.Logger) *AppointmentService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &AppointmentService{
		db:         db,
		activities: activities,
		events:     events,
		log:        log.With().Str("component", "appointments").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type CreateAppointmentParams struct {
	CustomerID     *uuid.UUID
	StaffID        *uuid.UUID
	ServiceID      *uuid.UUID
	LocationID     *uuid.UUID
	ScheduledStart time.Time
	ScheduledEnd   *time.Time
	Notes          string
}

type AppointmentFilter struct {
	Day        *time.Time
	Status     models.AppointmentStatus
	StaffID    *uuid.UUID
	CustomerID *uuid.UUID
	LocationID *uuid.UUID
}

// Create books a SCHEDULED appointment. When no end is given it is derived
// from the service duration.
func (s *AppointmentService) Create(ctx context.Context, salonID uuid.UUID, p CreateAppointmentParams) (*models.Appointment, error) {
	if p.ScheduledStart.IsZero() {
		return nil, fmt.Errorf("%w: scheduledStart is required", ErrInvalidInput)
	}

	appt := models.Appointment{
		SalonID:        salonID,
		CustomerID:     p.CustomerID,
		StaffID:        p.StaffID,
		ServiceID:      p.ServiceID,
		LocationID:     p.LocationID,
		ScheduledStart: p.ScheduledStart.UTC(),
		Status:         models.AppointmentScheduled,
		Notes:          strings.TrimSpace(p.Notes),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		length := defaultAppointmentLength
		if p.ServiceID != nil {
			var svc models.Service
			if err := tx.Where("salon_id = ? AND id = ?", salonID, *p.ServiceID).First(&svc).Error; err != nil {
				return refError("service", err)
			}
			if svc.Duration > 0 {
				length = time.Duration(svc.Duration) * time.Minute
			}
		}
		if p.CustomerID != nil {
			if err := findInSalon(tx, &models.Customer{}, salonID, *p.CustomerID); err != nil {
				return refError("customer", err)
			}
		}
		if p.StaffID != nil {
			if err := findInSalon(tx, &models.User{}, salonID, *p.StaffID); err != nil {
				return refError("staff", err)
			}
		}
		if p.LocationID != nil {
			if err := findInSalon(tx, &models.Location{}, salonID, *p.LocationID); err != nil {
				return refError("location", err)
			}
		}

		appt.ScheduledEnd = appt.ScheduledStart.Add(length)
		if p.ScheduledEnd != nil {
			appt.ScheduledEnd = p.ScheduledEnd.UTC()
		}
		if !appt.ScheduledEnd.After(appt.ScheduledStart) {
			return fmt.Errorf("%w: scheduledEnd must be after scheduledStart", ErrInvalidInput)
		}

		if err := tx.Create(&appt).Error; err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		if appt.CustomerID != nil {
			return s.activities.Log(ctx, tx, &models.Activity{
				SalonID:     salonID,
				CustomerID:  *appt.CustomerID,
				Type:        models.ActivityAppointmentBooked,
				Title:       "Appointment booked",
				Description: "Booked for " + formatSlot(appt.ScheduledStart),
				Metadata:    appointmentMetadata(&appt),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.log, s.event(EventAppointmentBooked, &appt))
	return &appt, nil
}

func (s *AppointmentService) Get(ctx context.Context, salonID, id uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).Preload("Customer").Preload("Service").
		Where("salon_id = ? AND id = ?", salonID, id).
		First(&appt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &appt, nil
}

func (s *AppointmentService) List(ctx context.Context, salonID uuid.UUID, f AppointmentFilter) ([]models.Appointment, error) {
	q := s.db.WithContext(ctx).Preload("Customer").Preload("Service").Where("salon_id = ?", salonID)
	if f.Day != nil {
		start := utils.BeginningOfDay(*f.Day)
		q = q.Where("scheduled_start >= ? AND scheduled_start < ?", start.UTC(), start.AddDate(0, 0, 1).UTC())
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.StaffID != nil {
		q = q.Where("staff_id = ?", *f.StaffID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.LocationID != nil {
		q = q.Where("location_id = ?", *f.LocationID)
	}

	var appts []models.Appointment
	if err := q.Order("scheduled_start ASC").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// CheckIn marks the client as arrived.
func (s *AppointmentService) CheckIn(ctx context.Context, salonID, id uuid.UUID) (*models.Appointment, error) {
	return s.transition(ctx, salonID, id, transitionSpec{
		target:   models.AppointmentCheckedIn,
		event:    EventAppointmentCheckedIn,
		activity: models.ActivityAppointmentCheckedIn,
		title:    "Checked in",
		describe: func(a *models.Appointment) string { return "Checked in for " + formatSlot(a.ScheduledStart) },
		mutate: func(a *models.Appointment, now time.Time) {
			a.CheckedInAt = &now
			a.ActualStart = &now
		},
	})
}

// Complete closes the visit and counts it on the client record.
func (s *AppointmentService) Complete(ctx context.Context, salonID, id uuid.UUID) (*models.Appointment, error) {
	return s.transition(ctx, salonID, id, transitionSpec{
		target:   models.AppointmentCompleted,
		event:    EventAppointmentCompleted,
		activity: models.ActivityAppointmentCompleted,
		title:    "Appointment completed",
		describe: func(a *models.Appointment) string { return "Completed appointment of " + formatSlot(a.ScheduledStart) },
		mutate: func(a *models.Appointment, now time.Time) {
			a.ActualEnd = &now
			a.CheckedOutAt = &now
		},
		after: func(tx *gorm.DB, a *models.Appointment, previous models.AppointmentStatus, now time.Time) error {
			if a.CustomerID == nil {
				return nil
			}
			return tx.Model(&models.Customer{}).Where("id = ?", *a.CustomerID).
				Updates(map[string]interface{}{
					"total_visits": gorm.Expr("total_visits + ?", 1),
					"last_visit":   now,
				}).Error
		},
	})
}

// Cancel cancels the appointment. A non-empty reason replaces the internal note.
func (s *AppointmentService) Cancel(ctx context.Context, salonID, id uuid.UUID, reason string) (*models.Appointment, error) {
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, salonID, id, transitionSpec{
		target:   models.AppointmentCancelled,
		event:    EventAppointmentCancelled,
		activity: models.ActivityAppointmentCancelled,
		title:    "Appointment cancelled",
		describe: func(a *models.Appointment) string {
			desc := "Cancelled appointment of " + formatSlot(a.ScheduledStart)
			if reason != "" {
				desc += ": " + reason
			}
			return desc
		},
		mutate: func(a *models.Appointment, _ time.Time) {
			if reason != "" {
				a.InternalNotes = "Cancelled: " + reason
			}
		},
	})
}

// MarkNoShow records that the client never arrived.
func (s *AppointmentService) MarkNoShow(ctx context.Context, salonID, id uuid.UUID) (*models.Appointment, error) {
	return s.transition(ctx, salonID, id, transitionSpec{
		target:   models.AppointmentNoShow,
		event:    EventAppointmentNoShow,
		activity: models.ActivityAppointmentNoShow,
		title:    "Missed appointment",
		describe: func(a *models.Appointment) string { return "Did not show for " + formatSlot(a.ScheduledStart) },
	})
}

type transitionSpec struct {
	target   models.AppointmentStatus
	event    string
	activity string
	title    string
	describe func(*models.Appointment) string
	mutate   func(*models.Appointment, time.Time)
	after    func(tx *gorm.DB, a *models.Appointment, previous models.AppointmentStatus, now time.Time) error
}

func (s *AppointmentService) transition(ctx context.Context, salonID, id uuid.UUID, spec transitionSpec) (*models.Appointment, error) {
	var (
		appt   models.Appointment
		repeat bool
	)
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("salon_id = ? AND id = ?", salonID, id).
			First(&appt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load appointment: %w", err)
		}

		previous := appt.Status
		if !previous.CanTransitionTo(spec.target) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, previous, spec.target)
		}
		// A repeat returns the stored record unchanged.
		if previous == spec.target {
			repeat = true
			return nil
		}

		if spec.mutate != nil {
			spec.mutate(&appt, now)
		}
		appt.Status = spec.target
		if err := tx.Omit(clause.Associations).Save(&appt).Error; err != nil {
			return fmt.Errorf("save appointment: %w", err)
		}
		if spec.after != nil {
			if err := spec.after(tx, &appt, previous, now); err != nil {
				return fmt.Errorf("apply %s side effects: %w", spec.target, err)
			}
		}

		if appt.CustomerID == nil {
			return nil
		}
		meta := appointmentMetadata(&appt)
		meta["previousStatus"] = string(previous)
		return s.activities.Log(ctx, tx, &models.Activity{
			SalonID:     salonID,
			CustomerID:  *appt.CustomerID,
			Type:        spec.activity,
			Title:       spec.title,
			Description: spec.describe(&appt),
			Metadata:    meta,
			CreatedAt:   now,
		})
	})
	appointmentTransitions.WithLabelValues(string(spec.target), outcome(err)).Inc()
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidTransition) {
			s.log.Error().Err(err).
				Str("salon_id", salonID.String()).
				Str("appointment_id", id.String()).
				Str("target", string(spec.target)).
				Msg("appointment transition failed")
		}
		return nil, err
	}
	if repeat {
		return &appt, nil
	}

	publish(ctx, s.events, s.log, s.event(spec.event, &appt))
	return &appt, nil
}

func (s *AppointmentService) event(eventType string, a *models.Appointment) Event {
	return Event{
		Type:        eventType,
		SalonID:     a.SalonID,
		AggregateID: a.ID,
		OccurredAt:  s.now(),
		Data:        appointmentMetadata(a),
	}
}

func appointmentMetadata(a *models.Appointment) models.JSONB {
	meta := models.JSONB{
		"appointmentId":  a.ID.String(),
		"status":         string(a.Status),
		"scheduledStart": a.ScheduledStart.Format(time.RFC3339),
	}
	if a.ServiceID != nil {
		meta["serviceId"] = a.ServiceID.String()
	}
	if a.StaffID != nil {
		meta["staffId"] = a.StaffID.String()
	}
	return meta
}

func formatSlot(t time.Time) string {
	return t.Format("Mon Jan 2, 15:04 MST")
}

// findInSalon loads the row with the given id, scoped to salonID.
func findInSalon(tx *gorm.DB, dst interface{}, salonID, id uuid.UUID) error {
	return tx.Select("id").Where("salon_id = ? AND id = ?", salonID, id).First(dst).Error
}

func refError(name string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s not found", ErrInvalidInput, name)
	}
	return fmt.Errorf("find %s: %w", name, err)
}
