package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"salonpro-frontdesk/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultMinutesPerSlot is the fixed wait estimate per place in the queue.
const DefaultMinutesPerSlot = 15

// WaitlistService manages the walk-in queue of each location. Anything that
// changes the shape of a queue runs in one transaction that locks the
// location's active entries and rewrites their positions to 1..N.
type WaitlistService struct {
	db             *gorm.DB
	activities     *ActivityService
	events         EventPublisher
	messages       *ReminderService
	log            zerolog.Logger
	minutesPerSlot int
	now            func() time.Time
}

func NewWaitlistService(db *gorm.DB, activities *ActivityService, events EventPublisher, messages *ReminderService, minutesPerSlot int, log zerolog.Logger) *WaitlistService {
	if events == nil {
		events = NoopPublisher{}
	}
	if minutesPerSlot <= 0 {
		minutesPerSlot = DefaultMinutesPerSlot
	}
	return &WaitlistService{
		db:             db,
		activities:     activities,
		events:         events,
		messages:       messages,
		log:            log.With().Str("component", "waitlist").Logger(),
		minutesPerSlot: minutesPerSlot,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type JoinWaitlistParams struct {
	LocationID uuid.UUID
	CustomerID *uuid.UUID
	ServiceID  *uuid.UUID
	GuestName  string
	GuestPhone string
	PartySize  int
	Notes      string
}

// UpdateWaitlistParams holds a partial update. Nil fields are left unchanged.
type UpdateWaitlistParams struct {
	Notes         *string
	PartySize     *int
	ServiceID     *uuid.UUID
	EstimatedWait *int
	Status        *models.WaitlistStatus
	Position      *int
}

// Join appends a new entry at the end of the location's active queue.
func (s *WaitlistService) Join(ctx context.Context, salonID uuid.UUID, p JoinWaitlistParams) (*models.WaitlistEntry, error) {
	p.GuestName = strings.TrimSpace(p.GuestName)
	if p.CustomerID == nil && p.GuestName == "" {
		return nil, fmt.Errorf("%w: customerId or guestName is required", ErrInvalidInput)
	}
	if p.PartySize <= 0 {
		p.PartySize = 1
	}

	entry := models.WaitlistEntry{
		SalonID:    salonID,
		LocationID: p.LocationID,
		CustomerID: p.CustomerID,
		ServiceID:  p.ServiceID,
		GuestName:  p.GuestName,
		GuestPhone: strings.TrimSpace(p.GuestPhone),
		PartySize:  p.PartySize,
		Status:     models.WaitlistWaiting,
		Notes:      strings.TrimSpace(p.Notes),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findInSalon(tx, &models.Location{}, salonID, p.LocationID); err != nil {
			return refError("location", err)
		}
		if p.CustomerID != nil {
			if err := findInSalon(tx, &models.Customer{}, salonID, *p.CustomerID); err != nil {
				return refError("customer", err)
			}
		}
		if p.ServiceID != nil {
			if err := findInSalon(tx, &models.Service{}, salonID, *p.ServiceID); err != nil {
				return refError("service", err)
			}
		}

		active, err := s.lockActive(tx, p.LocationID)
		if err != nil {
			return err
		}
		last := 0
		for _, e := range active {
			if e.Position > last {
				last = e.Position
			}
		}
		entry.Position = last + 1
		entry.EstimatedWait = len(active) * s.minutesPerSlot

		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("create waitlist entry: %w", err)
		}
		return s.logActivity(ctx, tx, &entry, models.ActivityWaitlistJoined, "Joined the waitlist",
			"Joined the queue at position "+strconv.Itoa(entry.Position))
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.log, s.event(EventWaitlistJoined, &entry))
	return &entry, nil
}

// List returns a location's active queue ordered by position, or every entry
// of the salon when locationID is nil. includeInactive adds SEATED and LEFT entries.
func (s *WaitlistService) List(ctx context.Context, salonID uuid.UUID, locationID *uuid.UUID, includeInactive bool) ([]models.WaitlistEntry, error) {
	q := s.db.WithContext(ctx).Where("salon_id = ?", salonID)
	if locationID != nil {
		q = q.Where("location_id = ?", *locationID)
	}
	if !includeInactive {
		q = q.Where("status IN ?", activeStatuses())
	}

	var entries []models.WaitlistEntry
	if err := q.Order("location_id ASC, position ASC, created_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return entries, nil
}

func (s *WaitlistService) Get(ctx context.Context, salonID, id uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := s.db.WithContext(ctx).Where("salon_id = ? AND id = ?", salonID, id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get waitlist entry: %w", err)
	}
	return &entry, nil
}

// ActiveCounts returns the number of active entries per location.
func (s *WaitlistService) ActiveCounts(ctx context.Context, salonID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		LocationID uuid.UUID
		Count      int
	}
	if err := s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Select("location_id, COUNT(*) AS count").
		Where("salon_id = ? AND status IN ?", salonID, activeStatuses()).
		Group("location_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count waitlist: %w", err)
	}
	counts := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		counts[r.LocationID] = r.Count
	}
	return counts, nil
}

// Seat moves the entry out of the queue as SEATED and compacts the queue.
func (s *WaitlistService) Seat(ctx context.Context, salonID, id uuid.UUID) (*models.WaitlistEntry, error) {
	status := models.WaitlistSeated
	return s.Update(ctx, salonID, id, UpdateWaitlistParams{Status: &status})
}

// Remove marks the entry LEFT and compacts the queue. Entries are never deleted.
func (s *WaitlistService) Remove(ctx context.Context, salonID, id uuid.UUID) (*models.WaitlistEntry, error) {
	status := models.WaitlistLeft
	return s.Update(ctx, salonID, id, UpdateWaitlistParams{Status: &status})
}

// Notify marks the entry NOTIFIED and texts the guest. The entry keeps its place.
func (s *WaitlistService) Notify(ctx context.Context, salonID, id uuid.UUID) (*models.WaitlistEntry, error) {
	status := models.WaitlistNotified
	entry, err := s.Update(ctx, salonID, id, UpdateWaitlistParams{Status: &status})
	if err != nil {
		return nil, err
	}
	if s.messages != nil {
		if err := s.messages.SendWaitlistReady(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("entry_id", entry.ID.String()).Msg("waitlist notification not delivered")
		}
	}
	return entry, nil
}

// Update applies a partial update. A status leaving the active set stamps the
// matching timestamp and renumbers the queue; a new position moves the entry
// within the active queue.
func (s *WaitlistService) Update(ctx context.Context, salonID, id uuid.UUID, p UpdateWaitlistParams) (*models.WaitlistEntry, error) {
	if p.Status != nil && !p.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *p.Status)
	}
	if p.PartySize != nil && *p.PartySize <= 0 {
		return nil, fmt.Errorf("%w: partySize must be positive", ErrInvalidInput)
	}
	if p.EstimatedWait != nil && *p.EstimatedWait < 0 {
		return nil, fmt.Errorf("%w: estimatedWait must not be negative", ErrInvalidInput)
	}
	if p.Position != nil && *p.Position < 1 {
		return nil, fmt.Errorf("%w: position must be at least 1", ErrInvalidInput)
	}

	var (
		entry     models.WaitlistEntry
		previous  models.WaitlistStatus
		renumbers bool
		trigger   string
	)
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("salon_id = ? AND id = ?", salonID, id).
			First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load waitlist entry: %w", err)
		}
		previous = entry.Status

		if p.Status != nil {
			if !previous.CanTransitionTo(*p.Status) {
				return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, previous, *p.Status)
			}
			if *p.Status != previous {
				entry.Status = *p.Status
				switch entry.Status {
				case models.WaitlistNotified:
					entry.NotifiedAt = &now
				case models.WaitlistSeated:
					entry.SeatedAt = &now
				case models.WaitlistLeft:
					entry.LeftAt = &now
				}
			}
		}
		if p.Position != nil && !entry.Status.Active() {
			return fmt.Errorf("%w: only waiting entries can be repositioned", ErrInvalidInput)
		}
		if p.Notes != nil {
			entry.Notes = strings.TrimSpace(*p.Notes)
		}
		if p.PartySize != nil {
			entry.PartySize = *p.PartySize
		}
		if p.ServiceID != nil {
			if err := findInSalon(tx, &models.Service{}, salonID, *p.ServiceID); err != nil {
				return refError("service", err)
			}
			entry.ServiceID = p.ServiceID
		}
		if p.EstimatedWait != nil {
			entry.EstimatedWait = *p.EstimatedWait
		}

		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("save waitlist entry: %w", err)
		}

		switch {
		case previous.Active() && !entry.Status.Active():
			renumbers, trigger = true, strings.ToLower(string(entry.Status))
			if _, err := s.renumber(tx, entry.LocationID, nil, 0); err != nil {
				return err
			}
		case p.Position != nil:
			renumbers, trigger = true, "move"
			active, err := s.renumber(tx, entry.LocationID, &entry.ID, *p.Position)
			if err != nil {
				return err
			}
			for _, e := range active {
				if e.ID == entry.ID {
					entry.Position, entry.EstimatedWait = e.Position, e.EstimatedWait
				}
			}
		}

		if entry.Status != previous {
			switch entry.Status {
			case models.WaitlistSeated:
				return s.logActivity(ctx, tx, &entry, models.ActivityWaitlistSeated, "Seated from the waitlist", "")
			case models.WaitlistLeft:
				return s.logActivity(ctx, tx, &entry, models.ActivityWaitlistLeft, "Left the waitlist", "")
			}
		}
		return nil
	})
	if renumbers {
		waitlistRenumbers.WithLabelValues(trigger, outcome(err)).Inc()
	}
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrInvalidInput) {
			s.log.Error().Err(err).
				Str("salon_id", salonID.String()).
				Str("entry_id", id.String()).
				Msg("waitlist update failed")
		}
		return nil, err
	}

	if entry.Status != previous {
		switch entry.Status {
		case models.WaitlistNotified:
			publish(ctx, s.events, s.log, s.event(EventWaitlistNotified, &entry))
		case models.WaitlistSeated:
			publish(ctx, s.events, s.log, s.event(EventWaitlistSeated, &entry))
		case models.WaitlistLeft:
			publish(ctx, s.events, s.log, s.event(EventWaitlistLeft, &entry))
		}
	} else if p.Position != nil {
		publish(ctx, s.events, s.log, s.event(EventWaitlistReordered, &entry))
	}
	return &entry, nil
}

// lockActive reads a location's active entries in queue order under a row lock.
func (s *WaitlistService) lockActive(tx *gorm.DB, locationID uuid.UUID) ([]models.WaitlistEntry, error) {
	var active []models.WaitlistEntry
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("location_id = ? AND status IN ?", locationID, activeStatuses()).
		Order("position ASC, created_at ASC").
		Find(&active).Error; err != nil {
		return nil, fmt.Errorf("load active waitlist: %w", err)
	}
	return active, nil
}

// renumber rewrites the active queue of a location to positions 1..N with an
// estimated wait of rank*minutesPerSlot, keeping the current relative order.
// When moveID is set that entry is first moved to position moveTo (clamped).
// It must run inside tx so a failure leaves no partially renumbered queue.
func (s *WaitlistService) renumber(tx *gorm.DB, locationID uuid.UUID, moveID *uuid.UUID, moveTo int) ([]models.WaitlistEntry, error) {
	active, err := s.lockActive(tx, locationID)
	if err != nil {
		return nil, err
	}
	if moveID != nil {
		active = moveEntry(active, *moveID, moveTo)
	}

	for i := range active {
		position, wait := i+1, i*s.minutesPerSlot
		if active[i].Position == position && active[i].EstimatedWait == wait {
			continue
		}
		if err := tx.Model(&models.WaitlistEntry{}).
			Where("id = ?", active[i].ID).
			Updates(map[string]interface{}{"position": position, "estimated_wait": wait}).Error; err != nil {
			return nil, fmt.Errorf("renumber waitlist entry %s: %w", active[i].ID, err)
		}
		active[i].Position, active[i].EstimatedWait = position, wait
	}
	waitlistQueueLength.Observe(float64(len(active)))
	return active, nil
}

func moveEntry(entries []models.WaitlistEntry, id uuid.UUID, to int) []models.WaitlistEntry {
	from := -1
	for i, e := range entries {
		if e.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return entries
	}
	moved := entries[from]
	rest := make([]models.WaitlistEntry, 0, len(entries))
	rest = append(rest, entries[:from]...)
	rest = append(rest, entries[from+1:]...)

	idx := to - 1
	if idx > len(rest) {
		idx = len(rest)
	}
	out := make([]models.WaitlistEntry, 0, len(entries))
	out = append(out, rest[:idx]...)
	out = append(out, moved)
	return append(out, rest[idx:]...)
}

func (s *WaitlistService) logActivity(ctx context.Context, tx *gorm.DB, e *models.WaitlistEntry, kind, title, description string) error {
	if e.CustomerID == nil {
		return nil
	}
	return s.activities.Log(ctx, tx, &models.Activity{
		SalonID:     e.SalonID,
		CustomerID:  *e.CustomerID,
		Type:        kind,
		Title:       title,
		Description: description,
		Metadata: models.JSONB{
			"waitlistEntryId": e.ID.String(),
			"locationId":      e.LocationID.String(),
			"status":          string(e.Status),
		},
	})
}

func (s *WaitlistService) event(eventType string, e *models.WaitlistEntry) Event {
	return Event{
		Type:        eventType,
		SalonID:     e.SalonID,
		AggregateID: e.ID,
		OccurredAt:  s.now(),
		Data: map[string]interface{}{
			"locationId":    e.LocationID.String(),
			"status":        string(e.Status),
			"position":      e.Position,
			"estimatedWait": e.EstimatedWait,
		},
	}
}

func activeStatuses() []string {
	out := make([]string, len(models.ActiveWaitlistStatuses))
	for i, st := range models.ActiveWaitlistStatuses {
		out[i] = string(st)
	}
	return out
}
