package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type SchedulerConfig struct {
	AppointmentSpec string
	GreetingSpec    string
}

// Scheduler runs the reminder jobs on cron schedules. Start and Stop are safe
// to call more than once.
type Scheduler struct {
	reminders *ReminderService
	cfg       SchedulerConfig
	log       zerolog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewScheduler(reminders *ReminderService, cfg SchedulerConfig, log zerolog.Logger) *Scheduler {
	if cfg.AppointmentSpec == "" {
		cfg.AppointmentSpec = "*/15 * * * *"
	}
	if cfg.GreetingSpec == "" {
		cfg.GreetingSpec = "0 9 * * *"
	}
	return &Scheduler{
		reminders: reminders,
		cfg:       cfg,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{s.log}), cron.SkipIfStillRunning(cronLogger{s.log})))

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (int, error)
	}{
		{"appointment_reminders", s.cfg.AppointmentSpec, s.reminders.SendAppointmentReminders},
		{"greetings", s.cfg.GreetingSpec, s.reminders.SendGreetings},
	}
	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.spec, func() { s.run(ctx, job.name, job.run) }); err != nil {
			cancel()
			return fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
	}

	c.Start()
	s.cron, s.cancel = c, cancel
	s.log.Info().
		Str("appointment_spec", s.cfg.AppointmentSpec).
		Str("greeting_spec", s.cfg.GreetingSpec).
		Msg("reminder scheduler started")
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	cancel()
	<-c.Stop().Done()
	s.log.Info().Msg("reminder scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

func (s *Scheduler) run(ctx context.Context, name string, fn func(context.Context) (int, error)) {
	s.log.Debug().Str("job", name).Msg("job started")
	n, err := fn(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("job", name).Int("sent", n).Msg("job failed")
		return
	}
	s.log.Info().Str("job", name).Int("sent", n).Msg("job completed")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
