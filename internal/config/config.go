package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	SLA      SLAConfig
	Twilio   TwilioConfig
	SMTP     SMTPConfig
	Webhook  WebhookConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSOrigins           string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SLAConfig externalizes the escalation policy: the two thresholds, the roles
// that receive escalation emails, dispatch bounds, and the scheduler cadence.
// Invariant: FollowUpThreshold < EscalationThreshold.
type SLAConfig struct {
	FollowUpThreshold      time.Duration
	EscalationThreshold    time.Duration
	AdminRoles             []string
	DispatchTimeoutSeconds int
	RunIntervalMinutes     int
	RunTimeoutMinutes      int
	LockTTLSeconds         int
}

// TwilioConfig holds SMS delivery credentials.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// SMTPConfig holds escalation email delivery settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// WebhookConfig holds the optional event forwarding endpoint.
type WebhookConfig struct {
	URL            string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	followUpHours := getEnvAsInt("SLA_FOLLOW_UP_HOURS", 24)
	escalationHours := getEnvAsInt("SLA_ESCALATION_HOURS", 48)
	if followUpHours >= escalationHours {
		return nil, fmt.Errorf("SLA_FOLLOW_UP_HOURS (%d) must be below SLA_ESCALATION_HOURS (%d)", followUpHours, escalationHours)
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "case-sla-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           getEnv("HTTP_CORS_ORIGINS", "*"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		SLA: SLAConfig{
			FollowUpThreshold:      time.Duration(followUpHours) * time.Hour,
			EscalationThreshold:    time.Duration(escalationHours) * time.Hour,
			AdminRoles:             getEnvAsList("SLA_ADMIN_ROLES", []string{"ADMIN"}),
			DispatchTimeoutSeconds: getEnvAsInt("SLA_DISPATCH_TIMEOUT_SECONDS", 10),
			RunIntervalMinutes:     getEnvAsInt("SLA_RUN_INTERVAL_MINUTES", 60),
			RunTimeoutMinutes:      getEnvAsInt("SLA_RUN_TIMEOUT_MINUTES", 10),
			LockTTLSeconds:         getEnvAsInt("SLA_LOCK_TTL_SECONDS", 600),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "alerts@example.com"),
		},
		Webhook: WebhookConfig{
			URL:            getEnv("NOTIFY_WEBHOOK_URL", ""),
			TimeoutSeconds: getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// DispatchTimeout bounds a single SMS or email send.
func (s SLAConfig) DispatchTimeout() time.Duration {
	if s.DispatchTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.DispatchTimeoutSeconds) * time.Second
}

// RunInterval is the cadence of the scheduled SLA job.
func (s SLAConfig) RunInterval() time.Duration {
	if s.RunIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.RunIntervalMinutes) * time.Minute
}

// RunTimeout bounds one full pipeline run.
func (s SLAConfig) RunTimeout() time.Duration {
	if s.RunTimeoutMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(s.RunTimeoutMinutes) * time.Minute
}

// LockTTL bounds how long a run may hold the cross-instance lock.
func (s SLAConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
