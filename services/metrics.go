package services

import "github.com/prometheus/client_golang/prometheus"

var (
	appointmentTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salonpro",
		Subsystem: "appointments",
		Name:      "transitions_total",
		Help:      "Appointment status transitions by target status and outcome.",
	}, []string{"status", "outcome"})

	waitlistRenumbers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salonpro",
		Subsystem: "waitlist",
		Name:      "renumbers_total",
		Help:      "Waitlist queue renumbering passes by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	waitlistQueueLength = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "salonpro",
		Subsystem: "waitlist",
		Name:      "renumbered_entries",
		Help:      "Active entries rewritten per renumbering pass.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})

	remindersSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salonpro",
		Subsystem: "reminders",
		Name:      "messages_total",
		Help:      "Outbound reminder messages by type and delivery status.",
	}, []string{"type", "status"})
)

func init() {
	prometheus.MustRegister(appointmentTransitions, waitlistRenumbers, waitlistQueueLength, remindersSent)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
