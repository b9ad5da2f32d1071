// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type ReminderConfig struct {
	// AppointmentLead is how far ahead of the start an appointment reminder goes out.
	AppointmentLead time.Duration
	// GreetingDays is how many days ahead birthdays and anniversaries are greeted.
	GreetingDays int
}

// ReminderService renders salon templates and delivers them through a Sender,
// logging every attempt as a ReminderLog row.
type ReminderService struct {
	db     *gorm.DB
	sender Sender
	cfg    ReminderConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewReminderService(db *gorm.DB, sender Sender, cfg ReminderConfig, log zerolog.Logger) *ReminderService {
	if cfg.AppointmentLead <= 0 {
		cfg.AppointmentLead = 24 * time.Hour
	}
	if cfg.GreetingDays < 0 {
		cfg.GreetingDays = 0
	}
	return &ReminderService{
		db:     db,
		sender: sender,
		cfg:    cfg,
		log:    log.With().Str("component", "reminders").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type outbound struct {
	salon         *models.Salon
	kind          string
	to            string
	values        map[string]string
	customerID    *uuid.UUID
	appointmentID *uuid.UUID
	waitlistID    *uuid.UUID
}

// errDelivery marks a provider failure, as opposed to a storage error.
var errDelivery = errors.New("message not delivered")

// SendAppointmentReminders texts every client whose SCHEDULED appointment
// starts within the configured lead time and has not been reminded yet.
// It returns the number of reminders delivered.
func (s *ReminderService) SendAppointmentReminders(ctx context.Context) (int, error) {
	now := s.now()

	var appts []models.Appointment
	if err := s.db.WithContext(ctx).Preload("Customer").
		Where("status = ? AND reminder_sent_at IS NULL AND customer_id IS NOT NULL", models.AppointmentScheduled).
		Where("scheduled_start > ? AND scheduled_start <= ?", now, now.Add(s.cfg.AppointmentLead)).
		Order("scheduled_start ASC").
		Find(&appts).Error; err != nil {
		return 0, fmt.Errorf("find upcoming appointments: %w", err)
	}

	salons := map[uuid.UUID]*models.Salon{}
	sent := 0
	for i := range appts {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		appt := &appts[i]
		if appt.Customer == nil || appt.Customer.Phone == "" {
			continue
		}
		salon, err := s.salon(ctx, salons, appt.SalonID)
		if err != nil {
			s.log.Error().Err(err).Str("salon_id", appt.SalonID.String()).Msg("failed to load salon")
			continue
		}
		if !salon.AppointmentReminders {
			continue
		}

		ok, err := s.deliver(ctx, outbound{
			salon: salon,
			kind:  models.ReminderAppointment,
			to:    appt.Customer.Phone,
			values: map[string]string{
				"CustomerName":    appt.Customer.Name,
				"AppointmentTime": appt.ScheduledStart.In(salonLocation(salon)).Format("Mon Jan 2 at 3:04 PM"),
			},
			customerID:    appt.CustomerID,
			appointmentID: &appt.ID,
		})
		if err != nil {
			s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("appointment reminder failed")
			continue
		}
		if !ok {
			continue
		}
		if err := s.db.WithContext(ctx).Model(&models.Appointment{}).
			Where("id = ?", appt.ID).
			Update("reminder_sent_at", now).Error; err != nil {
			s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to stamp reminder")
			continue
		}
		sent++
	}
	return sent, nil
}

// SendGreetings sends birthday and anniversary messages to active clients
// whose date falls within the next GreetingDays days, once per occurrence.
func (s *ReminderService) SendGreetings(ctx context.Context) (int, error) {
	var salons []models.Salon
	if err := s.db.WithContext(ctx).Find(&salons).Error; err != nil {
		return 0, fmt.Errorf("fetch salons: %w", err)
	}

	sent := 0
	for i := range salons {
		salon := &salons[i]
		if !salon.BirthdayReminders && !salon.AnniversaryReminders {
			continue
		}
		n, err := s.greetSalon(ctx, salon)
		sent += n
		if err != nil {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			s.log.Error().Err(err).Str("salon_id", salon.ID.String()).Msg("salon greetings failed")
		}
	}
	return sent, nil
}

func (s *ReminderService) greetSalon(ctx context.Context, salon *models.Salon) (int, error) {
	var customers []models.Customer
	if err := s.db.WithContext(ctx).
		Where("salon_id = ? AND is_active = ? AND (birthday IS NOT NULL OR anniversary IS NOT NULL)", salon.ID, true).
		Find(&customers).Error; err != nil {
		return 0, fmt.Errorf("fetch customers: %w", err)
	}

	today := utils.BeginningOfDay(s.now().In(salonLocation(salon)))
	sent := 0
	for i := range customers {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		c := &customers[i]
		events := []struct {
			kind    string
			date    *time.Time
			enabled bool
		}{
			{models.ReminderBirthday, c.Birthday, salon.BirthdayReminders},
			{models.ReminderAnniversary, c.Anniversary, salon.AnniversaryReminders},
		}
		for _, ev := range events {
			if !ev.enabled || ev.date == nil {
				continue
			}
			next := utils.NextAnniversary(*ev.date, today)
			if utils.DaysBetween(today, next) > s.cfg.GreetingDays {
				continue
			}
			already, err := s.alreadySent(ctx, c.ID, ev.kind, next.AddDate(0, 0, -(s.cfg.GreetingDays+1)))
			if err != nil {
				return sent, err
			}
			if already {
				continue
			}
			ok, err := s.deliver(ctx, outbound{
				salon:      salon,
				kind:       ev.kind,
				to:         c.Phone,
				values:     map[string]string{"CustomerName": c.Name},
				customerID: &c.ID,
			})
			if errors.Is(err, errDelivery) {
				// Already recorded as a failed ReminderLog; retried on the next run.
				s.log.Error().Err(err).Str("customer_id", c.ID.String()).Str("type", ev.kind).Msg("greeting failed")
				continue
			}
			if err != nil {
				return sent, err
			}
			if ok {
				sent++
			}
		}
	}
	return sent, nil
}

// SendWaitlistReady texts a notified waitlist guest.
func (s *ReminderService) SendWaitlistReady(ctx context.Context, entry *models.WaitlistEntry) error {
	var salon models.Salon
	if err := s.db.WithContext(ctx).First(&salon, "id = ?", entry.SalonID).Error; err != nil {
		return fmt.Errorf("load salon: %w", err)
	}

	name, phone := entry.GuestName, entry.GuestPhone
	if entry.CustomerID != nil {
		var c models.Customer
		if err := s.db.WithContext(ctx).First(&c, "id = ?", *entry.CustomerID).Error; err == nil {
			name, phone = c.Name, c.Phone
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load customer: %w", err)
		}
	}
	if phone == "" {
		return errors.New("no phone number on waitlist entry")
	}

	_, err := s.deliver(ctx, outbound{
		salon: &salon,
		kind:  models.ReminderWaitlist,
		to:    phone,
		values: map[string]string{
			"CustomerName": name,
			"Position":     strconv.Itoa(entry.Position),
		},
		customerID: entry.CustomerID,
		waitlistID: &entry.ID,
	})
	return err
}

// deliver renders the salon's template for msg.kind and sends it. It reports
// false without error when the salon has switched that template off.
func (s *ReminderService) deliver(ctx context.Context, msg outbound) (bool, error) {
	template, err := s.template(ctx, msg.salon.ID, msg.kind)
	if err != nil {
		return false, err
	}
	if template == nil {
		return false, nil
	}

	values := map[string]string{"SalonName": msg.salon.Name}
	for k, v := range msg.values {
		values[k] = v
	}
	body := RenderTemplate(template.Message, values)

	delivery, sendErr := s.sender.Send(ctx, msg.to, body)
	status, errorMsg := "sent", ""
	if sendErr != nil {
		status, errorMsg = "failed", sendErr.Error()
		s.log.Warn().Err(sendErr).Str("to", msg.to).Str("type", msg.kind).Msg("failed to send message")
	} else {
		s.log.Info().Str("to", msg.to).Str("type", msg.kind).Str("sid", delivery.ProviderID).Msg("message sent")
	}
	remindersSent.WithLabelValues(msg.kind, status).Inc()

	entry := models.ReminderLog{
		SalonID:       msg.salon.ID,
		CustomerID:    msg.customerID,
		AppointmentID: msg.appointmentID,
		WaitlistID:    msg.waitlistID,
		Type:          msg.kind,
		Recipient:     msg.to,
		Message:       body,
		Status:        status,
		ErrorMessage:  errorMsg,
		Channel:       delivery.Channel,
		ProviderID:    delivery.ProviderID,
		SentAt:        s.now(),
	}
	if template.ID != uuid.Nil {
		entry.TemplateID = &template.ID
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Error().Err(err).Str("type", msg.kind).Msg("failed to log reminder")
	}

	if sendErr != nil {
		return false, fmt.Errorf("%w: %w", errDelivery, sendErr)
	}
	return true, nil
}

// template returns the salon's template of the given type, the built-in
// default when the salon has none, or nil when the salon disabled it.
func (s *ReminderService) template(ctx context.Context, salonID uuid.UUID, kind string) (*models.ReminderTemplate, error) {
	var t models.ReminderTemplate
	err := s.db.WithContext(ctx).Where("salon_id = ? AND type = ?", salonID, kind).First(&t).Error
	switch {
	case err == nil:
		if !t.IsActive {
			return nil, nil
		}
		return &t, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		for _, d := range models.DefaultReminderTemplates(salonID) {
			if d.Type == kind {
				return &d, nil
			}
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("load %s template: %w", kind, err)
	}
}

func (s *ReminderService) alreadySent(ctx context.Context, customerID uuid.UUID, kind string, since time.Time) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ReminderLog{}).
		Where("customer_id = ? AND type = ? AND status = ? AND sent_at > ?", customerID, kind, "sent", since.UTC()).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check reminder log: %w", err)
	}
	return count > 0, nil
}

func (s *ReminderService) salon(ctx context.Context, cache map[uuid.UUID]*models.Salon, id uuid.UUID) (*models.Salon, error) {
	if salon, ok := cache[id]; ok {
		return salon, nil
	}
	var salon models.Salon
	if err := s.db.WithContext(ctx).First(&salon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	cache[id] = &salon
	return &salon, nil
}

func salonLocation(salon *models.Salon) *time.Location {
	if salon.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(salon.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
