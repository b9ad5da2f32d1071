package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"salonpro-frontdesk/config"
	"salonpro-frontdesk/routes"
	"salonpro-frontdesk/services"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := config.NewLogger(cfg.Log)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(cfg.DB, logger)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}

	var events services.EventPublisher = services.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		events = services.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing events to kafka")
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	var sender services.Sender = services.NewLogSender(logger)
	if cfg.Twilio.Enabled() {
		sender = services.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber, cfg.Twilio.WhatsAppNumber)
	} else {
		logger.Warn().Msg("twilio not configured, messages will only be logged")
	}

	var limiter *utils.RateLimiter
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		limiter = utils.NewRateLimiter(rdb, cfg.Redis.RateLimit, cfg.Redis.RateLimitWindow, "", logger)
	}

	activities := services.NewActivityService(db)
	reminders := services.NewReminderService(db, sender, services.ReminderConfig{
		AppointmentLead: cfg.Scheduler.ReminderLead,
		GreetingDays:    cfg.Scheduler.GreetingDays,
	}, logger)
	appointments := services.NewAppointmentService(db, activities, events, logger)
	waitlist := services.NewWaitlistService(db, activities, events, reminders, cfg.Waitlist.MinutesPerSlot, logger)

	if cfg.Scheduler.Enabled {
		scheduler := services.NewScheduler(reminders, services.SchedulerConfig{
			AppointmentSpec: cfg.Scheduler.AppointmentSpec,
			GreetingSpec:    cfg.Scheduler.GreetingSpec,
		}, logger)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(routes.Deps{
		Config:      cfg,
		DB:          db,
		Log:         logger,
		Activities:  activities,
		Appointment: appointments,
		Waitlist:    waitlist,
		RateLimiter: limiter,
	})
	printRoutes(logger, router)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printRoutes(logger zerolog.Logger, r *gin.Engine) {
	for _, route := range r.Routes() {
		logger.Debug().Str("method", route.Method).Str("path", route.Path).Msg("route")
	}
}
