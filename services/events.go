package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types published after a committed status change.
const (
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentCheckedIn = "appointment.checked_in"
	EventAppointmentCompleted = "appointment.completed"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentNoShow    = "appointment.no_show"
	EventWaitlistJoined       = "waitlist.joined"
	EventWaitlistNotified     = "waitlist.notified"
	EventWaitlistSeated       = "waitlist.seated"
	EventWaitlistLeft         = "waitlist.left"
	EventWaitlistReordered    = "waitlist.reordered"
)

type Event struct {
	ID          uuid.UUID   `json:"id"`
	Type        string      `json:"type"`
	SalonID     uuid.UUID   `json:"salonId"`
	AggregateID uuid.UUID   `json:"aggregateId"`
	OccurredAt  time.Time   `json:"occurredAt"`
	Data        interface{} `json:"data,omitempty"`
}

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// KafkaPublisher writes events to a single topic keyed by aggregate id, so
// all changes to one appointment or entry land on the same partition.
// Writes are asynchronous: Publish only queues the message, and delivery
// failures are reported through the logger once the batch completes.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	log = log.With().Str("component", "events").Str("topic", topic).Logger()
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err == nil {
					return
				}
				for _, m := range messages {
					log.Warn().Err(err).
						Str("event_type", header(m, "event_type")).
						Str("aggregate_id", string(m.Key)).
						Msg("failed to publish event")
				}
			},
		},
	}
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.AggregateID.String()),
		Value: payload,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(evt.ID.String())},
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	})
}

// Close flushes queued events before closing the connections.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *RecordingPublisher) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *RecordingPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *RecordingPublisher) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

const publishTimeout = 3 * time.Second

// publish is best effort: the state change is already committed, so a
// delivery failure is logged and never surfaced to the caller.
func publish(ctx context.Context, p EventPublisher, log zerolog.Logger, evt Event) {
	if p == nil {
		return
	}
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).
			Str("event_type", evt.Type).
			Str("aggregate_id", evt.AggregateID.String()).
			Msg("failed to publish event")
	}
}
