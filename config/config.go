package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of the service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Waitlist  WaitlistConfig  `yaml:"waitlist"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type DBConfig struct {
	URL             string        `yaml:"url"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type AuthConfig struct {
	JWTSecret   string `yaml:"jwtSecret"`
	ExpiryHours int    `yaml:"expiryHours"`
}

// TokenExpiry returns the lifetime of issued tokens.
func (a AuthConfig) TokenExpiry() time.Duration {
	return time.Duration(a.ExpiryHours) * time.Hour
}

type TwilioConfig struct {
	AccountSID     string `yaml:"accountSid"`
	AuthToken      string `yaml:"authToken"`
	PhoneNumber    string `yaml:"phoneNumber"`
	WhatsAppNumber string `yaml:"whatsAppNumber"`
}

// Enabled reports whether enough credentials are present to send messages.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.PhoneNumber != ""
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type RedisConfig struct {
	URL             string        `yaml:"url"`
	RateLimit       int           `yaml:"rateLimit"`
	RateLimitWindow time.Duration `yaml:"rateLimitWindow"`
}

type SchedulerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	AppointmentSpec string        `yaml:"appointmentSpec"`
	GreetingSpec    string        `yaml:"greetingSpec"`
	ReminderLead    time.Duration `yaml:"reminderLead"`
	GreetingDays    int           `yaml:"greetingDays"`
}

type WaitlistConfig struct {
	MinutesPerSlot int `yaml:"minutesPerSlot"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: 10 * time.Second,
		},
		DB: DBConfig{
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Log:  LogConfig{Level: "info"},
		Auth: AuthConfig{ExpiryHours: 24},
		Kafka: KafkaConfig{
			Topic: "salonpro.frontdesk.events",
		},
		Redis: RedisConfig{
			RateLimit:       120,
			RateLimitWindow: time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			AppointmentSpec: "*/15 * * * *",
			GreetingSpec:    "0 9 * * *",
			ReminderLead:    24 * time.Hour,
			GreetingDays:    7,
		},
		Waitlist: WaitlistConfig{MinutesPerSlot: 15},
	}
}

// Load reads configuration from defaults, an optional .env file, an optional
// YAML file named by SALONPRO_CONFIG_PATH, and environment variables, in that order.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("SALONPRO_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("PORT must be a valid TCP port (got %q)", c.Server.Port)
	}
	if c.Waitlist.MinutesPerSlot < 0 {
		return errors.New("WAITLIST_MINUTES_PER_SLOT must not be negative")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("PORT", &cfg.Server.Port)
	setList("ALLOWED_ORIGINS", &cfg.Server.AllowedOrigins)
	setString("DB_URL", &cfg.DB.URL)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("JWT_SECRET", &cfg.Auth.JWTSecret)
	setString("TWILIO_ACCOUNT_SID", &cfg.Twilio.AccountSID)
	setString("TWILIO_AUTH_TOKEN", &cfg.Twilio.AuthToken)
	setString("TWILIO_PHONE_NUMBER", &cfg.Twilio.PhoneNumber)
	setString("TWILIO_WHATSAPP_NUMBER", &cfg.Twilio.WhatsAppNumber)
	setList("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	setString("KAFKA_TOPIC", &cfg.Kafka.Topic)
	setString("REDIS_URL", &cfg.Redis.URL)
	setString("SCHEDULER_APPOINTMENT_SPEC", &cfg.Scheduler.AppointmentSpec)
	setString("SCHEDULER_GREETING_SPEC", &cfg.Scheduler.GreetingSpec)

	ints := []struct {
		key string
		dst *int
	}{
		{"DB_MAX_IDLE_CONNS", &cfg.DB.MaxIdleConns},
		{"DB_MAX_OPEN_CONNS", &cfg.DB.MaxOpenConns},
		{"JWT_EXPIRY_HOURS", &cfg.Auth.ExpiryHours},
		{"RATE_LIMIT_PER_MINUTE", &cfg.Redis.RateLimit},
		{"GREETING_DAYS", &cfg.Scheduler.GreetingDays},
		{"WAITLIST_MINUTES_PER_SLOT", &cfg.Waitlist.MinutesPerSlot},
	}
	for _, v := range ints {
		if err := setInt(v.key, v.dst); err != nil {
			return err
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", &cfg.DB.ConnMaxLifetime},
		{"SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout},
		{"REMINDER_LEAD", &cfg.Scheduler.ReminderLead},
	}
	for _, v := range durations {
		if err := setDuration(v.key, v.dst); err != nil {
			return err
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"LOG_PRETTY", &cfg.Log.Pretty},
		{"SCHEDULER_ENABLED", &cfg.Scheduler.Enabled},
	}
	for _, v := range bools {
		if err := setBool(v.key, v.dst); err != nil {
			return err
		}
	}
	return nil
}

func setString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setList(key string, dst *[]string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func setInt(key string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(key string, dst *bool) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}
